package scheduling

import (
	"context"
	"time"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// VacationLookup lists the blackout ranges of a branch.
type VacationLookup interface {
	ListByBranch(ctx context.Context, branchID string) ([]models.VacationRecord, error)
}

// VacationCalendar matches dates against a branch's vacation records.
type VacationCalendar struct {
	records []models.VacationRecord
}

// NewVacationCalendar builds a calendar over the given records.
func NewVacationCalendar(records []models.VacationRecord) *VacationCalendar {
	return &VacationCalendar{records: records}
}

// LoadVacationCalendar fetches the branch's records. A series without a branch has no vacations.
func LoadVacationCalendar(ctx context.Context, lookup VacationLookup, branchID *string) (*VacationCalendar, error) {
	if lookup == nil || branchID == nil || *branchID == "" {
		return NewVacationCalendar(nil), nil
	}
	records, err := lookup.ListByBranch(ctx, *branchID)
	if err != nil {
		return nil, err
	}
	return NewVacationCalendar(records), nil
}

// IsVacationDay reports whether date falls in any record.
func (c *VacationCalendar) IsVacationDay(date time.Time) bool {
	if c == nil {
		return false
	}
	date = Day(date)
	for _, rec := range c.records {
		if rec.IsRecurring {
			if matchesRecurring(rec, date) {
				return true
			}
			continue
		}
		if !date.Before(Day(rec.StartDate)) && !date.After(Day(rec.EndDate)) {
			return true
		}
	}
	return false
}

// matchesRecurring compares month*100+day values. A start after the end wraps New Year.
func matchesRecurring(rec models.VacationRecord, date time.Time) bool {
	target := monthDay(date)
	start := monthDay(rec.StartDate)
	end := monthDay(rec.EndDate)
	if start <= end {
		return target >= start && target <= end
	}
	return target >= start || target <= end
}

func monthDay(t time.Time) int {
	_, m, d := t.Date()
	return int(m)*100 + d
}
