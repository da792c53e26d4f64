package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// AvailabilityRepository reads approved user availability records.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, user_id, type, day_of_week, date, full_day,
	to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time,
	status, created_at, updated_at`

// ListApprovedByDate returns APPROVED records of kind dated on date.
func (r *AvailabilityRepository) ListApprovedByDate(ctx context.Context, userID string, kind models.AvailabilityKind, date time.Time) ([]models.AvailabilityRecord, error) {
	query := `SELECT ` + availabilityColumns + `
FROM user_availability
WHERE user_id = $1 AND type = $2 AND date = $3::date AND status = $4
ORDER BY start_time ASC NULLS FIRST`
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, userID, kind, date.Format("2006-01-02"), models.AvailabilityApproved); err != nil {
		return nil, fmt.Errorf("list %s availability for %s: %w", kind, userID, err)
	}
	return records, nil
}

// ListApprovedByWeekday returns the APPROVED weekly pattern of userID for weekday.
func (r *AvailabilityRepository) ListApprovedByWeekday(ctx context.Context, userID string, weekday time.Weekday) ([]models.AvailabilityRecord, error) {
	query := `SELECT ` + availabilityColumns + `
FROM user_availability
WHERE user_id = $1 AND type = $2 AND day_of_week = $3 AND status = $4
ORDER BY start_time ASC NULLS FIRST`
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, userID, models.AvailabilityRegular, int(weekday), models.AvailabilityApproved); err != nil {
		return nil, fmt.Errorf("list regular availability for %s: %w", userID, err)
	}
	return records, nil
}
