package scheduling

import (
	"errors"
	"time"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// DateLayout is the wire and SQL format of calendar dates.
const DateLayout = "2006-01-02"

var (
	// ErrNoWeekdays indicates a series without any day of week configured.
	ErrNoWeekdays = errors.New("scheduling: series has no days of week")
	// ErrInvalidHorizon indicates a non-positive horizon.
	ErrInvalidHorizon = errors.New("scheduling: horizon must be at least one month")
)

// Day truncates t to its calendar date, expressed as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc as midnight UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

// Window is a closed range of calendar dates.
type Window struct {
	From time.Time
	To   time.Time
}

// Empty reports whether the window contains no dates.
func (w Window) Empty() bool {
	return w.To.Before(w.From)
}

// GenerationWindow computes the next window for a series.
//
// From is the latest of the series start, the day after the cursor and today. To is From plus
// horizonMonths on the calendar, capped at the series end date. exhausted is true when From is
// already past the series end date.
func GenerationWindow(series *models.ClassSeries, today time.Time, horizonMonths int) (window Window, exhausted bool, err error) {
	if horizonMonths < 1 {
		return Window{}, false, ErrInvalidHorizon
	}
	from := Day(series.StartDate)
	if series.LastGeneratedThrough != nil {
		next := Day(*series.LastGeneratedThrough).AddDate(0, 0, 1)
		if next.After(from) {
			from = next
		}
	}
	today = Day(today)
	if today.After(from) {
		from = today
	}

	if series.EndDate != nil && from.After(Day(*series.EndDate)) {
		return Window{From: from, To: Day(*series.EndDate)}, true, nil
	}

	to := from.AddDate(0, horizonMonths, 0)
	if series.EndDate != nil && Day(*series.EndDate).Before(to) {
		to = Day(*series.EndDate)
	}
	return Window{From: from, To: to}, false, nil
}

// CandidateDates lists every date in the window whose weekday is in weekdays, ascending.
func CandidateDates(weekdays []time.Weekday, window Window) ([]time.Time, error) {
	if len(weekdays) == 0 {
		return nil, ErrNoWeekdays
	}
	set := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		set[d] = true
	}
	var dates []time.Time
	for current := Day(window.From); !current.After(window.To); current = current.AddDate(0, 0, 1) {
		if set[current.Weekday()] {
			dates = append(dates, current)
		}
	}
	return dates, nil
}
