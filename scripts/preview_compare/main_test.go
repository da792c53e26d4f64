package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdu211171/schedule-website-sub003/internal/dto"
	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

func TestDiffOutcomes(t *testing.T) {
	preview := &dto.ExtendSeriesResponse{From: "2026-01-05", To: "2026-02-05", Occurrences: []dto.OccurrenceOutcome{
		{Date: "2026-01-05", StartTime: "10:00", EndTime: "11:00", Status: models.SessionStatusConfirmed},
		{Date: "2026-01-07", StartTime: "10:00", EndTime: "11:00", Status: models.SessionStatusConfirmed},
		{Date: "2026-01-12", StartTime: "10:00", EndTime: "11:00", Status: models.SessionStatusConfirmed},
	}}
	extended := &dto.ExtendSeriesResponse{From: "2026-01-05", To: "2026-02-05", Occurrences: []dto.OccurrenceOutcome{
		{Date: "2026-01-05", SessionID: "a", StartTime: "10:00", EndTime: "11:00", Status: models.SessionStatusConfirmed},
		{Date: "2026-01-07", SessionID: "b", StartTime: "10:00", EndTime: "11:00", Status: models.SessionStatusConflicted},
	}}

	diffs := diffOutcomes(preview, extended)

	assert.Len(t, diffs, 2)
	assert.Contains(t, diffs, "2026-01-12 previewed but not created")
	assert.Contains(t, diffs[0], "2026-01-07 previewed CONFIRMED")
}

func TestDiffOutcomesIdentical(t *testing.T) {
	resp := &dto.ExtendSeriesResponse{From: "2026-01-05", To: "2026-02-05", Occurrences: []dto.OccurrenceOutcome{
		{Date: "2026-01-05", StartTime: "10:00", EndTime: "11:00", Status: models.SessionStatusConfirmed},
	}}
	assert.Empty(t, diffOutcomes(resp, resp))
}
