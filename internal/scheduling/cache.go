package scheduling

import (
	"context"
	"time"
)

// CacheObserver receives hit/miss notifications from a LookupCache.
type CacheObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

type lookupKey struct {
	userID string
	date   string
}

// LookupCache memoizes availability and absence lookups per (user, date).
//
// A cache belongs to exactly one extension run and is discarded with it. It is not safe for
// concurrent use.
type LookupCache struct {
	resolver *AvailabilityResolver
	observer CacheObserver
	slots    map[lookupKey][]Slot
	absences map[lookupKey]Absences
}

// NewLookupCache creates an empty cache in front of resolver. observer may be nil.
func NewLookupCache(resolver *AvailabilityResolver, observer CacheObserver) *LookupCache {
	return &LookupCache{
		resolver: resolver,
		observer: observer,
		slots:    make(map[lookupKey][]Slot),
		absences: make(map[lookupKey]Absences),
	}
}

func keyFor(userID string, date time.Time) lookupKey {
	return lookupKey{userID: userID, date: Day(date).Format(DateLayout)}
}

// Slots returns the resolved free slots of userID on date.
func (c *LookupCache) Slots(ctx context.Context, userID string, date time.Time) ([]Slot, error) {
	start := time.Now()
	key := keyFor(userID, date)
	if slots, ok := c.slots[key]; ok {
		c.observe(true, start)
		return slots, nil
	}
	slots, err := c.resolver.Resolve(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	c.slots[key] = slots
	c.observe(false, start)
	return slots, nil
}

// HasAbsenceOverlap reports whether an absence of userID on date touches [start, end).
func (c *LookupCache) HasAbsenceOverlap(ctx context.Context, userID string, start, end int, date time.Time) (bool, error) {
	began := time.Now()
	key := keyFor(userID, date)
	absences, ok := c.absences[key]
	if !ok {
		var err error
		absences, err = c.resolver.Absences(ctx, userID, date)
		if err != nil {
			return false, err
		}
		c.absences[key] = absences
	}
	c.observe(ok, began)
	return absences.Overlaps(start, end), nil
}

// Len returns the number of memoized entries.
func (c *LookupCache) Len() int {
	return len(c.slots) + len(c.absences)
}

func (c *LookupCache) observe(hit bool, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.RecordCacheOperation(hit, time.Since(start))
}
