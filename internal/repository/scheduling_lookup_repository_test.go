package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

var availabilityRowColumns = []string{"id", "user_id", "type", "day_of_week", "date", "full_day", "start_time", "end_time", "status", "created_at", "updated_at"}

func TestAvailabilityRepositoryListApprovedByDate(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(availabilityRowColumns).
		AddRow("a1", "user-1", "ABSENCE", nil, day, true, nil, nil, "APPROVED", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND type = $2 AND date = $3::date AND status = $4")).
		WithArgs("user-1", models.AvailabilityAbsence, "2026-01-05", models.AvailabilityApproved).
		WillReturnRows(rows)

	records, err := repo.ListApprovedByDate(context.Background(), "user-1", models.AvailabilityAbsence, day)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].FullDay)
	assert.Nil(t, records[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListApprovedByWeekday(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	rows := sqlmock.NewRows(availabilityRowColumns).
		AddRow("r1", "user-1", "REGULAR", 1, nil, false, "14:00", "17:00", "APPROVED", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("AND day_of_week = $3")).
		WithArgs("user-1", models.AvailabilityRegular, 1, models.AvailabilityApproved).
		WillReturnRows(rows)

	records, err := repo.ListApprovedByWeekday(context.Background(), "user-1", time.Monday)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].DayOfWeek)
	assert.Equal(t, 1, *records[0].DayOfWeek)
	assert.Equal(t, "14:00", *records[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVacationRepositoryListByBranch(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewVacationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "branch_id", "name", "start_date", "end_date", "is_recurring"}).
		AddRow("v1", "branch-1", "Winter break", time.Date(2020, 12, 20, 0, 0, 0, 0, time.UTC), time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC), true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM vacations")).WithArgs("branch-1").WillReturnRows(rows)

	records, err := repo.ListByBranch(context.Background(), "branch-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsRecurring)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTypeRepositoryIsSpecial(t *testing.T) {
	db, mock, cleanup := newSchedulingRepoMock(t)
	defer cleanup()
	repo := NewClassTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WITH RECURSIVE chain AS")).
		WithArgs("type-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(true))

	special, err := repo.IsSpecial(context.Background(), "type-1")
	require.NoError(t, err)
	assert.True(t, special)
	assert.NoError(t, mock.ExpectationsWereMet())
}
