package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// AvailabilityLookup returns a user's APPROVED availability records.
type AvailabilityLookup interface {
	ListApprovedByDate(ctx context.Context, userID string, kind models.AvailabilityKind, date time.Time) ([]models.AvailabilityRecord, error)
	ListApprovedByWeekday(ctx context.Context, userID string, weekday time.Weekday) ([]models.AvailabilityRecord, error)
}

// Absences are the approved absence windows of a user on one date.
type Absences struct {
	FullDay bool
	Slots   []Slot
}

// Overlaps reports whether any absence touches [start, end).
func (a Absences) Overlaps(start, end int) bool {
	if a.FullDay {
		return true
	}
	for _, slot := range a.Slots {
		if Overlaps(slot.Start, slot.End, start, end) {
			return true
		}
	}
	return false
}

// AvailabilityResolver combines weekly patterns, date exceptions and absences into free time.
type AvailabilityResolver struct {
	lookup AvailabilityLookup
}

// NewAvailabilityResolver wires the resolver to its record source.
func NewAvailabilityResolver(lookup AvailabilityLookup) *AvailabilityResolver {
	return &AvailabilityResolver{lookup: lookup}
}

// Resolve returns the effective free slots of userID on date.
// Exceptions for the date replace the weekly pattern entirely; absences are subtracted.
func (r *AvailabilityResolver) Resolve(ctx context.Context, userID string, date time.Time) ([]Slot, error) {
	date = Day(date)
	exceptions, err := r.lookup.ListApprovedByDate(ctx, userID, models.AvailabilityException, date)
	if err != nil {
		return nil, fmt.Errorf("load availability exceptions: %w", err)
	}
	base, found := recordSlots(exceptions, models.AvailabilityException)
	if found == 0 {
		regular, err := r.lookup.ListApprovedByWeekday(ctx, userID, date.Weekday())
		if err != nil {
			return nil, fmt.Errorf("load regular availability: %w", err)
		}
		base, _ = recordSlots(regular, models.AvailabilityRegular)
	}

	absences, err := r.Absences(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	remove := absences.Slots
	if absences.FullDay {
		remove = append(remove, FullDay())
	}
	return Subtract(base, remove), nil
}

// Absences loads the approved absence windows of userID on date.
func (r *AvailabilityResolver) Absences(ctx context.Context, userID string, date time.Time) (Absences, error) {
	records, err := r.lookup.ListApprovedByDate(ctx, userID, models.AvailabilityAbsence, Day(date))
	if err != nil {
		return Absences{}, fmt.Errorf("load absences: %w", err)
	}
	var result Absences
	for _, rec := range records {
		if rec.Status != models.AvailabilityApproved || rec.Kind != models.AvailabilityAbsence {
			continue
		}
		if rec.FullDay {
			result.FullDay = true
			continue
		}
		if slot, ok := recordSlot(rec); ok {
			result.Slots = append(result.Slots, slot)
		}
	}
	result.Slots = Merge(result.Slots)
	return result, nil
}

// HasAbsenceOverlap reports whether an approved absence of userID on date touches [start, end).
func (r *AvailabilityResolver) HasAbsenceOverlap(ctx context.Context, userID string, start, end int, date time.Time) (bool, error) {
	absences, err := r.Absences(ctx, userID, date)
	if err != nil {
		return false, err
	}
	return absences.Overlaps(start, end), nil
}

// recordSlots converts the approved records of kind and reports how many qualified.
func recordSlots(records []models.AvailabilityRecord, kind models.AvailabilityKind) ([]Slot, int) {
	slots := make([]Slot, 0, len(records))
	found := 0
	for _, rec := range records {
		if rec.Status != models.AvailabilityApproved || rec.Kind != kind {
			continue
		}
		found++
		if slot, ok := recordSlot(rec); ok {
			slots = append(slots, slot)
		}
	}
	return slots, found
}

// recordSlot converts a record into a slot; malformed or empty windows are dropped.
func recordSlot(rec models.AvailabilityRecord) (Slot, bool) {
	if rec.FullDay {
		return FullDay(), true
	}
	if rec.StartTime == nil || rec.EndTime == nil {
		return Slot{}, false
	}
	start, err := ParseClock(*rec.StartTime)
	if err != nil {
		return Slot{}, false
	}
	end, err := ParseClock(*rec.EndTime)
	if err != nil || end <= start {
		return Slot{}, false
	}
	return Slot{Start: start, End: end}, true
}
