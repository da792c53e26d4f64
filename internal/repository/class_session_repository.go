package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
	"github.com/jdu211171/schedule-website-sub003/pkg/database"
)

// ErrDuplicateSession is returned when a session already exists for the same series, date and times.
var ErrDuplicateSession = fmt.Errorf("class session already exists: %w", database.ErrUniqueViolation)

// ClassSessionRepository persists dated class sessions.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// ListActiveByDates returns non-cancelled sessions on any of dates that use one of the filter's
// resources. Cancelled sessions never block a slot.
func (r *ClassSessionRepository) ListActiveByDates(ctx context.Context, dates []time.Time, filter models.ResourceFilter) ([]models.ClassSession, error) {
	if len(dates) == 0 || filter.Empty() {
		return nil, nil
	}
	days := make([]string, len(dates))
	for i, d := range dates {
		days[i] = d.Format("2006-01-02")
	}

	const query = `SELECT class_id, series_id, teacher_id, student_id, booth_id, subject_id, class_type_id, branch_id,
	date, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, duration,
	status, is_cancelled, cancellation_reason, created_at, updated_at
FROM class_sessions
WHERE date = ANY($1::date[])
	AND is_cancelled = FALSE
	AND (teacher_id = $2 OR student_id = $3 OR booth_id = $4)
ORDER BY date ASC, start_time ASC`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, pq.Array(days), filter.TeacherID, filter.StudentID, filter.BoothID); err != nil {
		return nil, fmt.Errorf("list class sessions by dates: %w", err)
	}
	return sessions, nil
}

// Create inserts a session, assigning an ID and timestamps when missing.
func (r *ClassSessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO class_sessions (class_id, series_id, teacher_id, student_id, booth_id, subject_id, class_type_id, branch_id,
	date, start_time, end_time, duration, status, is_cancelled, cancellation_reason, created_at, updated_at)
VALUES (:class_id, :series_id, :teacher_id, :student_id, :booth_id, :subject_id, :class_type_id, :branch_id,
	:date, :start_time, :end_time, :duration, :status, :is_cancelled, :cancellation_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		if database.IsUniqueViolation(err) {
			return errors.Join(ErrDuplicateSession, err)
		}
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}
