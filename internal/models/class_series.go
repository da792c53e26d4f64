package models

import (
	"time"

	"github.com/lib/pq"
)

// SeriesStatus tracks whether a recurring series still produces sessions.
type SeriesStatus string

const (
	SeriesStatusActive SeriesStatus = "ACTIVE"
	SeriesStatusEnded  SeriesStatus = "ENDED"
)

// ClassSeries is a recurring booking template materialized into class sessions.
type ClassSeries struct {
	ID                   string         `db:"series_id" json:"seriesId"`
	TeacherID            *string        `db:"teacher_id" json:"teacherId,omitempty"`
	TeacherUserID        *string        `db:"teacher_user_id" json:"-"`
	StudentID            *string        `db:"student_id" json:"studentId,omitempty"`
	StudentUserID        *string        `db:"student_user_id" json:"-"`
	BoothID              *string        `db:"booth_id" json:"boothId,omitempty"`
	SubjectID            *string        `db:"subject_id" json:"subjectId,omitempty"`
	ClassTypeID          *string        `db:"class_type_id" json:"classTypeId,omitempty"`
	BranchID             *string        `db:"branch_id" json:"branchId,omitempty"`
	DaysOfWeek           pq.Int64Array  `db:"days_of_week" json:"daysOfWeek"`
	StartTime            string         `db:"start_time" json:"startTime"`
	EndTime              string         `db:"end_time" json:"endTime"`
	Duration             int            `db:"duration" json:"duration"`
	StartDate            time.Time      `db:"start_date" json:"startDate"`
	EndDate              *time.Time     `db:"end_date" json:"endDate,omitempty"`
	Status               SeriesStatus   `db:"status" json:"status"`
	LastGeneratedThrough *time.Time     `db:"last_generated_through" json:"lastGeneratedThrough,omitempty"`
	ConflictPolicy       ConflictPolicy `db:"conflict_policy" json:"conflictPolicy"`
	CreatedAt            time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updatedAt"`
}

// Weekdays returns the configured days of week, ignoring values outside 0 (Sunday) .. 6 (Saturday).
func (s *ClassSeries) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(s.DaysOfWeek))
	seen := make(map[int64]bool, len(s.DaysOfWeek))
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, time.Weekday(d))
	}
	return days
}

// ResourceFilter narrows same-day booking lookups to the resources a series uses.
type ResourceFilter struct {
	TeacherID *string
	StudentID *string
	BoothID   *string
}

// Empty reports whether the filter matches nothing.
func (f ResourceFilter) Empty() bool {
	return f.TeacherID == nil && f.StudentID == nil && f.BoothID == nil
}

// ResourceFilter derives the booking filter for the series.
func (s *ClassSeries) ResourceFilter() ResourceFilter {
	return ResourceFilter{TeacherID: s.TeacherID, StudentID: s.StudentID, BoothID: s.BoothID}
}
