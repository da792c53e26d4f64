package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

func newSchedulingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var classSeriesRowColumns = []string{
	"series_id", "teacher_id", "teacher_user_id", "student_id", "student_user_id",
	"booth_id", "subject_id", "class_type_id", "branch_id", "days_of_week",
	"start_time", "end_time", "duration",
	"start_date", "end_date", "status", "last_generated_through", "conflict_policy", "created_at", "updated_at",
}

func TestClassSeriesRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewClassSeriesRepository(db)

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(classSeriesRowColumns).AddRow(
		"series-1", "teacher-1", "user-t", "student-1", nil,
		"booth-1", nil, "type-1", "branch-1", []byte("{1,3}"),
		"15:00", "16:00", 60,
		start, nil, "ACTIVE", nil, []byte(`{"markAsConflicted":{"TEACHER_UNAVAILABLE":true}}`), time.Now(), time.Now(),
	)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN teachers t ON t.teacher_id = cs.teacher_id")).
		WithArgs("series-1").
		WillReturnRows(rows)

	series, err := repo.FindByID(context.Background(), "series-1")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, series.Weekdays())
	require.NotNil(t, series.TeacherUserID)
	assert.Equal(t, "user-t", *series.TeacherUserID)
	assert.Nil(t, series.StudentUserID)
	assert.Equal(t, models.SeriesStatusActive, series.Status)
	assert.True(t, series.ConflictPolicy.MarkAsConflicted.TeacherUnavailable)
	assert.Nil(t, series.LastGeneratedThrough)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSeriesRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewClassSeriesRepository(db)

	mock.ExpectQuery("FROM class_series cs").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestClassSeriesRepositoryUpdateProgress(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewClassSeriesRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("GREATEST(COALESCE(last_generated_through, $2::date), $2::date)")).
		WithArgs("series-1", "2026-02-05", models.SeriesStatusEnded, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProgress(context.Background(), "series-1", time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), models.SeriesStatusEnded)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSeriesRepositoryUpdateStatusAndListActive(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewClassSeriesRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_series SET status = $2")).
		WithArgs("series-1", models.SeriesStatusEnded, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "series-1", models.SeriesStatusEnded))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT series_id FROM class_series WHERE status = $1")).
		WithArgs(models.SeriesStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"series_id"}).AddRow("a").AddRow("b"))
	ids, err := repo.ListActiveIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
