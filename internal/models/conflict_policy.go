package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ConflictReason identifies why an occurrence collides with bookings or availability.
type ConflictReason string

const (
	ConflictBooth              ConflictReason = "BOOTH_CONFLICT"
	ConflictTeacher            ConflictReason = "TEACHER_CONFLICT"
	ConflictStudent            ConflictReason = "STUDENT_CONFLICT"
	ConflictTeacherUnavailable ConflictReason = "TEACHER_UNAVAILABLE"
	ConflictTeacherWrongTime   ConflictReason = "TEACHER_WRONG_TIME"
	ConflictStudentUnavailable ConflictReason = "STUDENT_UNAVAILABLE"
	ConflictStudentWrongTime   ConflictReason = "STUDENT_WRONG_TIME"
	ConflictNoSharedAvailable  ConflictReason = "NO_SHARED_AVAILABILITY"
)

// ConflictReasons lists every reason ConflictPolicy.IsHard must route.
var ConflictReasons = []ConflictReason{
	ConflictBooth,
	ConflictTeacher,
	ConflictStudent,
	ConflictTeacherUnavailable,
	ConflictTeacherWrongTime,
	ConflictStudentUnavailable,
	ConflictStudentWrongTime,
	ConflictNoSharedAvailable,
}

// IsResource reports whether the reason comes from a booking overlap. Those are always hard.
func (r ConflictReason) IsResource() bool {
	switch r {
	case ConflictBooth, ConflictTeacher, ConflictStudent:
		return true
	}
	return false
}

// AvailabilityLeniency suppresses availability-coverage checks per role.
type AvailabilityLeniency struct {
	Teacher bool `json:"teacher"`
	Student bool `json:"student"`
}

// MarkAsConflicted decides, per policy-routed reason, whether the reason is a hard conflict.
// Unset keys are soft.
type MarkAsConflicted struct {
	TeacherUnavailable   bool `json:"TEACHER_UNAVAILABLE"`
	TeacherWrongTime     bool `json:"TEACHER_WRONG_TIME"`
	StudentUnavailable   bool `json:"STUDENT_UNAVAILABLE"`
	StudentWrongTime     bool `json:"STUDENT_WRONG_TIME"`
	NoSharedAvailability bool `json:"NO_SHARED_AVAILABILITY"`
}

// ConflictPolicy is the per-series classification configuration, stored as JSONB.
type ConflictPolicy struct {
	AllowOutsideAvailability AvailabilityLeniency `json:"allowOutsideAvailability"`
	MarkAsConflicted         MarkAsConflicted     `json:"markAsConflicted"`
}

// IsHard routes a reason through the policy. Resource overlaps are hard regardless of configuration.
func (p ConflictPolicy) IsHard(reason ConflictReason) bool {
	switch reason {
	case ConflictBooth, ConflictTeacher, ConflictStudent:
		return true
	case ConflictTeacherUnavailable:
		return p.MarkAsConflicted.TeacherUnavailable
	case ConflictTeacherWrongTime:
		return p.MarkAsConflicted.TeacherWrongTime
	case ConflictStudentUnavailable:
		return p.MarkAsConflicted.StudentUnavailable
	case ConflictStudentWrongTime:
		return p.MarkAsConflicted.StudentWrongTime
	case ConflictNoSharedAvailable:
		return p.MarkAsConflicted.NoSharedAvailability
	default:
		panic(fmt.Sprintf("conflict policy: unknown reason %q", reason))
	}
}

// Value implements driver.Valuer.
func (p ConflictPolicy) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner. NULL and empty payloads yield the zero (all soft) policy.
func (p *ConflictPolicy) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = ConflictPolicy{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("conflict policy: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*p = ConflictPolicy{}
		return nil
	}
	return json.Unmarshal(raw, p)
}
