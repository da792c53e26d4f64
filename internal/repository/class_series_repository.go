package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// ClassSeriesRepository reads series definitions and persists the generation cursor.
type ClassSeriesRepository struct {
	db *sqlx.DB
}

// NewClassSeriesRepository constructs the repository.
func NewClassSeriesRepository(db *sqlx.DB) *ClassSeriesRepository {
	return &ClassSeriesRepository{db: db}
}

const classSeriesColumns = `cs.series_id, cs.teacher_id, t.user_id AS teacher_user_id, cs.student_id, s.user_id AS student_user_id,
	cs.booth_id, cs.subject_id, cs.class_type_id, cs.branch_id, cs.days_of_week,
	to_char(cs.start_time, 'HH24:MI') AS start_time, to_char(cs.end_time, 'HH24:MI') AS end_time, cs.duration,
	cs.start_date, cs.end_date, cs.status, cs.last_generated_through, cs.conflict_policy, cs.created_at, cs.updated_at`

// FindByID loads a series with the user accounts of its teacher and student.
func (r *ClassSeriesRepository) FindByID(ctx context.Context, id string) (*models.ClassSeries, error) {
	query := `SELECT ` + classSeriesColumns + `
FROM class_series cs
LEFT JOIN teachers t ON t.teacher_id = cs.teacher_id
LEFT JOIN students s ON s.student_id = cs.student_id
WHERE cs.series_id = $1`
	var series models.ClassSeries
	if err := r.db.GetContext(ctx, &series, query, id); err != nil {
		return nil, err
	}
	return &series, nil
}

// ListActiveIDs returns every ACTIVE series id, oldest first.
func (r *ClassSeriesRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT series_id FROM class_series WHERE status = $1 ORDER BY created_at ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.SeriesStatusActive); err != nil {
		return nil, fmt.Errorf("list active class series: %w", err)
	}
	return ids, nil
}

// UpdateProgress moves the cursor forward and stores the status. The cursor never moves back.
func (r *ClassSeriesRepository) UpdateProgress(ctx context.Context, id string, through time.Time, status models.SeriesStatus) error {
	const query = `UPDATE class_series
SET last_generated_through = GREATEST(COALESCE(last_generated_through, $2::date), $2::date),
	status = $3,
	updated_at = $4
WHERE series_id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, through.Format("2006-01-02"), status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class series progress: %w", err)
	}
	return nil
}

// UpdateStatus stores the status without touching the cursor.
func (r *ClassSeriesRepository) UpdateStatus(ctx context.Context, id string, status models.SeriesStatus) error {
	const query = `UPDATE class_series SET status = $2, updated_at = $3 WHERE series_id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class series status: %w", err)
	}
	return nil
}
