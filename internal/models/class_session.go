package models

import "time"

// SessionStatus is the classification outcome stored on a class session.
type SessionStatus string

const (
	SessionStatusConfirmed  SessionStatus = "CONFIRMED"
	SessionStatusConflicted SessionStatus = "CONFLICTED"
)

// CancellationReason explains why a session was cancelled.
type CancellationReason string

const (
	CancellationAdmin CancellationReason = "ADMIN_CANCELLED"
)

// ClassSession is a concrete dated occurrence, optionally materialized from a ClassSeries.
type ClassSession struct {
	ID                 string              `db:"class_id" json:"classId"`
	SeriesID           *string             `db:"series_id" json:"seriesId,omitempty"`
	TeacherID          *string             `db:"teacher_id" json:"teacherId,omitempty"`
	StudentID          *string             `db:"student_id" json:"studentId,omitempty"`
	BoothID            *string             `db:"booth_id" json:"boothId,omitempty"`
	SubjectID          *string             `db:"subject_id" json:"subjectId,omitempty"`
	ClassTypeID        *string             `db:"class_type_id" json:"classTypeId,omitempty"`
	BranchID           *string             `db:"branch_id" json:"branchId,omitempty"`
	Date               time.Time           `db:"date" json:"date"`
	StartTime          string              `db:"start_time" json:"startTime"`
	EndTime            string              `db:"end_time" json:"endTime"`
	Duration           int                 `db:"duration" json:"duration"`
	Status             SessionStatus       `db:"status" json:"status"`
	IsCancelled        bool                `db:"is_cancelled" json:"isCancelled"`
	CancellationReason *CancellationReason `db:"cancellation_reason" json:"cancellationReason,omitempty"`
	CreatedAt          time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updatedAt"`
}
