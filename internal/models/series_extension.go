package models

import "time"

// SkipReason records why a candidate date produced no session.
type SkipReason string

const (
	SkipVacation     SkipReason = "VACATION"
	SkipUser         SkipReason = "USER_SKIP"
	SkipDBConstraint SkipReason = "DB_CONSTRAINT"
)

// OverrideAction is a caller-supplied per-date instruction.
type OverrideAction string

const (
	OverrideSkip           OverrideAction = "SKIP"
	OverrideUseAlternative OverrideAction = "USE_ALTERNATIVE"
	OverrideForceCreate    OverrideAction = "FORCE_CREATE"
)

// SeriesExtendedEvent summarises one extension run for downstream consumers.
type SeriesExtendedEvent struct {
	EventID              string       `json:"eventId"`
	SeriesID             string       `json:"seriesId"`
	BranchID             *string      `json:"branchId,omitempty"`
	CreatedIDs           []string     `json:"createdIds"`
	CreatedCount         int          `json:"createdCount"`
	SkippedCount         int          `json:"skippedCount"`
	ConflictCount        int          `json:"conflictCount"`
	CancelledCount       int          `json:"cancelledCount"`
	LastGeneratedThrough *time.Time   `json:"lastGeneratedThrough,omitempty"`
	Status               SeriesStatus `json:"status"`
	OccurredAt           time.Time    `json:"occurredAt"`
}
