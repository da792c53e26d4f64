package models

import "time"

// AvailabilityKind distinguishes weekly patterns from date-specific records.
type AvailabilityKind string

const (
	AvailabilityRegular   AvailabilityKind = "REGULAR"
	AvailabilityException AvailabilityKind = "EXCEPTION"
	AvailabilityAbsence   AvailabilityKind = "ABSENCE"
)

// AvailabilityStatus is the approval state of a record. Only APPROVED records are used.
type AvailabilityStatus string

const (
	AvailabilityPending  AvailabilityStatus = "PENDING"
	AvailabilityApproved AvailabilityStatus = "APPROVED"
	AvailabilityRejected AvailabilityStatus = "REJECTED"
)

// AvailabilityRecord is a declared free-time or absence window of a teacher or student user.
type AvailabilityRecord struct {
	ID        string             `db:"id" json:"id"`
	UserID    string             `db:"user_id" json:"userId"`
	Kind      AvailabilityKind   `db:"type" json:"type"`
	DayOfWeek *int               `db:"day_of_week" json:"dayOfWeek,omitempty"`
	Date      *time.Time         `db:"date" json:"date,omitempty"`
	FullDay   bool               `db:"full_day" json:"fullDay"`
	StartTime *string            `db:"start_time" json:"startTime,omitempty"`
	EndTime   *string            `db:"end_time" json:"endTime,omitempty"`
	Status    AvailabilityStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `db:"updated_at" json:"updatedAt"`
}

// VacationRecord is a branch-level blackout range. Recurring records match on month/day only.
type VacationRecord struct {
	ID          string    `db:"id" json:"id"`
	BranchID    *string   `db:"branch_id" json:"branchId,omitempty"`
	Name        string    `db:"name" json:"name"`
	StartDate   time.Time `db:"start_date" json:"startDate"`
	EndDate     time.Time `db:"end_date" json:"endDate"`
	IsRecurring bool      `db:"is_recurring" json:"isRecurring"`
}
