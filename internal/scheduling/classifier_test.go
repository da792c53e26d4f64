package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

func classifierSeries(policy models.ConflictPolicy) *models.ClassSeries {
	return &models.ClassSeries{
		ID:             "series-1",
		TeacherID:      strPtr("teacher-1"),
		TeacherUserID:  strPtr("teacher-user"),
		StudentID:      strPtr("student-1"),
		StudentUserID:  strPtr("student-user"),
		BoothID:        strPtr("booth-1"),
		ConflictPolicy: policy,
	}
}

func newTestClassifier(series *models.ClassSeries, stub *availabilityStub) *Classifier {
	return NewClassifier(series, NewLookupCache(NewAvailabilityResolver(stub), nil))
}

func bothAvailableMonday(stub *availabilityStub) {
	stub.regular("teacher-user", time.Monday, "09:00", "20:00")
	stub.regular("student-user", time.Monday, "09:00", "20:00")
}

func TestResourceConflicts(t *testing.T) {
	c := newTestClassifier(classifierSeries(models.ConflictPolicy{}), newAvailabilityStub())
	bookings := []Booking{
		{ID: "a", Start: 900, End: 990, BoothID: strPtr("booth-1")},
		{ID: "b", Start: 930, End: 960, TeacherID: strPtr("teacher-1"), BoothID: strPtr("booth-1")},
		{ID: "c", Start: 990, End: 1050, StudentID: strPtr("student-1")},
		{ID: "d", Start: 900, End: 990, StudentID: strPtr("student-2")},
	}

	reasons := c.ResourceConflicts(bookings, 900, 990)
	assert.Equal(t, []models.ConflictReason{models.ConflictBooth, models.ConflictTeacher}, reasons,
		"one reason per resource, back-to-back student booking ignored")

	assert.Empty(t, c.ResourceConflicts(bookings, 1050, 1110))
}

func TestResourceConflictsIgnoresNilResources(t *testing.T) {
	series := classifierSeries(models.ConflictPolicy{})
	series.BoothID = nil
	c := newTestClassifier(series, newAvailabilityStub())

	reasons := c.ResourceConflicts([]Booking{{Start: 900, End: 990}}, 900, 990)
	assert.Empty(t, reasons)
}

func TestClassifyCleanOccurrence(t *testing.T) {
	stub := newAvailabilityStub()
	bothAvailableMonday(stub)
	c := newTestClassifier(classifierSeries(models.ConflictPolicy{}), stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.False(t, result.Conflicted())
	assert.Empty(t, result.Soft)
	assert.False(t, result.Cancelled)
	assert.Equal(t, models.SessionStatusConfirmed, result.Status())
}

func TestClassifyUnavailableVersusWrongTime(t *testing.T) {
	stub := newAvailabilityStub()
	stub.regular("student-user", time.Monday, "10:00", "12:00")
	c := newTestClassifier(classifierSeries(models.ConflictPolicy{}), stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.ConflictReason{models.ConflictTeacherUnavailable, models.ConflictStudentWrongTime}, result.Soft)
	assert.Empty(t, result.Hard, "unset policy keys are soft")
	assert.Equal(t, models.SessionStatusConfirmed, result.Status())
}

func TestClassifyRoutesThroughPolicy(t *testing.T) {
	stub := newAvailabilityStub()
	stub.regular("student-user", time.Monday, "10:00", "12:00")
	policy := models.ConflictPolicy{MarkAsConflicted: models.MarkAsConflicted{TeacherUnavailable: true}}
	c := newTestClassifier(classifierSeries(policy), stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.ConflictReason{models.ConflictTeacherUnavailable}, result.Hard)
	assert.Equal(t, []models.ConflictReason{models.ConflictStudentWrongTime}, result.Soft)
	assert.Equal(t, models.SessionStatusConflicted, result.Status())
}

func TestClassifyLeniencySuppressesCoverage(t *testing.T) {
	policy := models.ConflictPolicy{
		AllowOutsideAvailability: models.AvailabilityLeniency{Teacher: true, Student: true},
		MarkAsConflicted:         models.MarkAsConflicted{TeacherUnavailable: true, StudentUnavailable: true},
	}
	c := newTestClassifier(classifierSeries(policy), newAvailabilityStub())

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Hard)
	assert.Empty(t, result.Soft)
}

func TestClassifyDoesNotShortCircuit(t *testing.T) {
	stub := newAvailabilityStub()
	policy := models.ConflictPolicy{MarkAsConflicted: models.MarkAsConflicted{TeacherUnavailable: true}}
	c := newTestClassifier(classifierSeries(policy), stub)
	bookings := []Booking{{Start: 900, End: 990, BoothID: strPtr("booth-1")}}

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, bookings)
	require.NoError(t, err)
	assert.Equal(t, []models.ConflictReason{models.ConflictBooth}, result.Resource)
	assert.Equal(t, []models.ConflictReason{models.ConflictTeacherUnavailable}, result.Hard)
	assert.Equal(t, []models.ConflictReason{models.ConflictStudentUnavailable}, result.Soft)
	assert.Equal(t, []models.ConflictReason{models.ConflictBooth, models.ConflictTeacherUnavailable}, result.HardReasons())
}

func TestClassifyParticipantsWithoutAccountsHaveNoAvailability(t *testing.T) {
	series := classifierSeries(models.ConflictPolicy{})
	series.TeacherUserID = nil
	stub := newAvailabilityStub()
	stub.regular("student-user", time.Monday, "09:00", "20:00")
	c := newTestClassifier(series, stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.ConflictReason{models.ConflictTeacherUnavailable}, result.Soft)
	assert.False(t, result.Cancelled)

	series.StudentUserID = nil
	c = newTestClassifier(series, newAvailabilityStub())
	result, err = c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.ConflictReason{models.ConflictTeacherUnavailable, models.ConflictStudentUnavailable}, result.Soft)
}

func TestClassifyWithoutParticipantsSkipsAvailability(t *testing.T) {
	series := classifierSeries(models.ConflictPolicy{})
	series.TeacherID = nil
	series.StudentID = nil
	stub := newAvailabilityStub()
	c := newTestClassifier(series, stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Soft)
	assert.Empty(t, result.Hard)
	assert.Zero(t, stub.dateCalls+stub.dayCalls)
}

func TestClassifyAbsenceCancels(t *testing.T) {
	stub := newAvailabilityStub()
	bothAvailableMonday(stub)
	stub.dated("teacher-user", models.AvailabilityAbsence, date(2026, 1, 5), true, "", "", models.AvailabilityApproved)
	c := newTestClassifier(classifierSeries(models.ConflictPolicy{}), stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Contains(t, result.Soft, models.ConflictTeacherUnavailable, "absence also removes the free time")
}

func TestClassifyFullDayAbsenceOverAllDayExceptionIsWrongTime(t *testing.T) {
	stub := newAvailabilityStub()
	stub.regular("student-user", time.Monday, "09:00", "20:00")
	stub.dated("teacher-user", models.AvailabilityException, date(2026, 1, 5), false, "00:00", "24:00", models.AvailabilityApproved)
	stub.dated("teacher-user", models.AvailabilityAbsence, date(2026, 1, 5), true, "", "", models.AvailabilityApproved)
	c := newTestClassifier(classifierSeries(models.ConflictPolicy{}), stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.ConflictReason{models.ConflictTeacherWrongTime}, result.Soft)
	assert.True(t, result.Cancelled)
}

func TestClassifyPartialAbsenceOutsideWindow(t *testing.T) {
	stub := newAvailabilityStub()
	bothAvailableMonday(stub)
	stub.dated("student-user", models.AvailabilityAbsence, date(2026, 1, 5), false, "10:00", "11:00", models.AvailabilityApproved)
	c := newTestClassifier(classifierSeries(models.ConflictPolicy{}), stub)

	result, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	require.NoError(t, err)
	assert.False(t, result.Cancelled)
	assert.Empty(t, result.Soft)
}

func TestClassifyPropagatesLookupErrors(t *testing.T) {
	stub := newAvailabilityStub()
	stub.err = assert.AnError
	c := newTestClassifier(classifierSeries(models.ConflictPolicy{}), stub)

	_, err := c.Classify(context.Background(), date(2026, 1, 5), 900, 990, nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSharedCovers(t *testing.T) {
	teacher := []Slot{{540, 720}, {900, 1080}}
	student := []Slot{{600, 800}, {1000, 1200}}
	assert.True(t, SharedCovers(teacher, student, 600, 700))
	assert.True(t, SharedCovers(teacher, student, 1000, 1080))
	assert.False(t, SharedCovers(teacher, student, 540, 600))
	assert.False(t, SharedCovers(teacher, nil, 600, 700))
}

func TestDowngradeKeepsReasonsAsWarnings(t *testing.T) {
	c := Classification{
		Resource:  []models.ConflictReason{models.ConflictBooth},
		Hard:      []models.ConflictReason{models.ConflictTeacherUnavailable},
		Soft:      []models.ConflictReason{models.ConflictStudentWrongTime},
		Cancelled: true,
	}
	d := c.Downgrade()
	assert.False(t, d.Conflicted())
	assert.True(t, d.Cancelled)
	assert.Equal(t, models.SessionStatusConfirmed, d.Status())
	assert.Equal(t, []models.ConflictReason{
		models.ConflictBooth, models.ConflictTeacherUnavailable, models.ConflictStudentWrongTime,
	}, d.Soft)
}

func TestBookingFromSession(t *testing.T) {
	b, ok := BookingFromSession(models.ClassSession{
		ID: "s1", Date: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), StartTime: "15:00:00", EndTime: "16:30:00",
		BoothID: strPtr("booth-1"),
	})
	require.True(t, ok)
	assert.Equal(t, 900, b.Start)
	assert.Equal(t, 990, b.End)
	assert.Equal(t, date(2026, 1, 5), b.Date)

	_, ok = BookingFromSession(models.ClassSession{StartTime: "bad", EndTime: "16:00"})
	assert.False(t, ok)
}

func TestBookingIsOccurrenceOf(t *testing.T) {
	b := Booking{SeriesID: strPtr("series-1"), Start: 900, End: 960}
	assert.True(t, b.IsOccurrenceOf("series-1", 900, 960))
	assert.False(t, b.IsOccurrenceOf("series-1", 900, 990))
	assert.False(t, b.IsOccurrenceOf("series-2", 900, 960))
	assert.False(t, Booking{Start: 900, End: 960}.IsOccurrenceOf("series-1", 900, 960))
}
