package dto

import "github.com/jdu211171/schedule-website-sub003/internal/models"

// DateOverride is a caller instruction for one candidate date. USE_ALTERNATIVE requires both
// alternative times.
type DateOverride struct {
	Date             string                `json:"date" validate:"required,datetime=2006-01-02"`
	Action           models.OverrideAction `json:"action" validate:"required,oneof=SKIP USE_ALTERNATIVE FORCE_CREATE"`
	AlternativeStart *string               `json:"alternativeStart,omitempty" validate:"omitempty,datetime=15:04"`
	AlternativeEnd   *string               `json:"alternativeEnd,omitempty" validate:"omitempty,datetime=15:04"`
}

// ExtendSeriesRequest asks for the next horizonMonths of a series to be materialized.
type ExtendSeriesRequest struct {
	HorizonMonths int            `json:"horizonMonths" validate:"required,min=1,max=12"`
	Overrides     []DateOverride `json:"overrides" validate:"omitempty,dive"`
}

// SkippedDetail explains why a candidate date produced no session.
type SkippedDetail struct {
	Date   string            `json:"date"`
	Reason models.SkipReason `json:"reason"`
}

// ConflictDetail lists the hard reasons of a CONFLICTED session.
type ConflictDetail struct {
	Date      string                  `json:"date"`
	SessionID string                  `json:"sessionId,omitempty"`
	StartTime string                  `json:"startTime"`
	EndTime   string                  `json:"endTime"`
	Reasons   []models.ConflictReason `json:"reasons"`
	Cancelled bool                    `json:"cancelled"`
}

// SoftWarning lists reasons reported without changing a session's CONFIRMED status.
type SoftWarning struct {
	Date    string                  `json:"date"`
	Reasons []models.ConflictReason `json:"reasons"`
}

// OccurrenceOutcome is the per-date result of a run, created or previewed.
type OccurrenceOutcome struct {
	Date      string                  `json:"date"`
	SessionID string                  `json:"sessionId,omitempty"`
	StartTime string                  `json:"startTime"`
	EndTime   string                  `json:"endTime"`
	Status    models.SessionStatus    `json:"status"`
	Cancelled bool                    `json:"cancelled"`
	Reasons   []models.ConflictReason `json:"reasons,omitempty"`
	Warnings  []models.ConflictReason `json:"warnings,omitempty"`
}

// ExtendSeriesResponse reports the outcome of an extension or preview run.
type ExtendSeriesResponse struct {
	SeriesID             string              `json:"seriesId"`
	From                 string              `json:"from,omitempty"`
	To                   string              `json:"to,omitempty"`
	Preview              bool                `json:"preview"`
	CreatedCount         int                 `json:"createdCount"`
	SkippedCount         int                 `json:"skippedCount"`
	ConflictCount        int                 `json:"conflictCount"`
	CancelledCount       int                 `json:"cancelledCount"`
	CreatedIDs           []string            `json:"createdIds"`
	SkippedDetails       []SkippedDetail     `json:"skippedDetails"`
	ConflictDetails      []ConflictDetail    `json:"conflictDetails"`
	SoftWarnings         []SoftWarning       `json:"softWarnings"`
	Occurrences          []OccurrenceOutcome `json:"occurrences"`
	LastGeneratedThrough *string             `json:"lastGeneratedThrough,omitempty"`
	SeriesStatus         models.SeriesStatus `json:"seriesStatus"`
}

// SweepResponse reports how many series were queued for background extension.
type SweepResponse struct {
	Enqueued  int      `json:"enqueued"`
	SeriesIDs []string `json:"seriesIds"`
}
