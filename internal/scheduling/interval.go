// Package scheduling materializes recurring class series into dated sessions and classifies
// each candidate against existing bookings, declared availability, absences and vacations.
package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FullDayEnd is the end minute used for full-day records. It stops one minute short of 1440,
// so a window ending at 24:00 is not covered by a full-day slot. The same gap survives a
// full-day absence: subtracting FullDay from an explicit 00:00-24:00 window leaves [1439, 1440),
// so that user is reported at the wrong time rather than unavailable.
const FullDayEnd = 1439

// Slot is a minute-of-day interval [Start, End).
type Slot struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FullDay returns the slot used for full-day records.
func FullDay() Slot {
	return Slot{Start: 0, End: FullDayEnd}
}

// Merge sorts slots by start and coalesces overlapping or touching slots.
func Merge(slots []Slot) []Slot {
	if len(slots) == 0 {
		return nil
	}
	sorted := make([]Slot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]Slot, 0, len(sorted))
	current := sorted[0]
	for _, slot := range sorted[1:] {
		if slot.Start <= current.End {
			if slot.End > current.End {
				current.End = slot.End
			}
			continue
		}
		merged = append(merged, current)
		current = slot
	}
	return append(merged, current)
}

// Subtract removes every remove slot from base and returns the merged remainder.
func Subtract(base, remove []Slot) []Slot {
	result := Merge(base)
	for _, r := range Merge(remove) {
		next := make([]Slot, 0, len(result)+1)
		for _, b := range result {
			if r.End <= b.Start || r.Start >= b.End {
				next = append(next, b)
				continue
			}
			if r.Start > b.Start {
				next = append(next, Slot{Start: b.Start, End: r.Start})
			}
			if r.End < b.End {
				next = append(next, Slot{Start: r.End, End: b.End})
			}
		}
		result = next
	}
	return Merge(result)
}

// Covers reports whether a single slot fully contains [start, end).
func Covers(slots []Slot, start, end int) bool {
	for _, slot := range slots {
		if slot.Start <= start && end <= slot.End {
			return true
		}
	}
	return false
}

// Overlaps is the half-open intersection test used for booking collisions.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ParseClock converts "HH:MM" or "HH:MM:SS" into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
