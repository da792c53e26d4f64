package scheduling

import (
	"context"
	"time"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// Booking is an existing, non-cancelled session occupying resources on a date.
type Booking struct {
	ID        string
	SeriesID  *string
	Date      time.Time
	Start     int
	End       int
	TeacherID *string
	StudentID *string
	BoothID   *string
}

// BookingFromSession converts a stored session. Sessions with unparsable times are dropped.
func BookingFromSession(s models.ClassSession) (Booking, bool) {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return Booking{}, false
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return Booking{}, false
	}
	return Booking{
		ID:        s.ID,
		SeriesID:  s.SeriesID,
		Date:      Day(s.Date),
		Start:     start,
		End:       end,
		TeacherID: s.TeacherID,
		StudentID: s.StudentID,
		BoothID:   s.BoothID,
	}, true
}

// Classification is the outcome of checking one candidate occurrence.
type Classification struct {
	// Resource holds booking-overlap reasons; these are always hard.
	Resource []models.ConflictReason
	// Hard holds availability reasons the policy marks as conflicts.
	Hard []models.ConflictReason
	// Soft holds availability reasons reported as warnings only.
	Soft []models.ConflictReason
	// Cancelled is set when the teacher or student has an overlapping absence.
	Cancelled bool
}

// Conflicted reports whether any hard reason was found.
func (c Classification) Conflicted() bool {
	return len(c.Resource) > 0 || len(c.Hard) > 0
}

// Status maps the classification to the stored session status.
func (c Classification) Status() models.SessionStatus {
	if c.Conflicted() {
		return models.SessionStatusConflicted
	}
	return models.SessionStatusConfirmed
}

// HardReasons returns resource and policy-hard reasons together.
func (c Classification) HardReasons() []models.ConflictReason {
	reasons := make([]models.ConflictReason, 0, len(c.Resource)+len(c.Hard))
	reasons = append(reasons, c.Resource...)
	return append(reasons, c.Hard...)
}

// Downgrade turns every hard reason into a warning, keeping the cancellation flag.
func (c Classification) Downgrade() Classification {
	soft := make([]models.ConflictReason, 0, len(c.Resource)+len(c.Hard)+len(c.Soft))
	soft = append(soft, c.Resource...)
	soft = append(soft, c.Hard...)
	soft = append(soft, c.Soft...)
	return Classification{Soft: soft, Cancelled: c.Cancelled}
}

// Classifier evaluates candidate occurrences of one series.
type Classifier struct {
	series  *models.ClassSeries
	lookups *LookupCache
}

// NewClassifier binds a classifier to a series and a run-scoped lookup cache.
func NewClassifier(series *models.ClassSeries, lookups *LookupCache) *Classifier {
	return &Classifier{series: series, lookups: lookups}
}

// ResourceConflicts checks [start, end) against same-day bookings sharing a resource.
// At most one reason is reported per resource.
func (c *Classifier) ResourceConflicts(bookings []Booking, start, end int) []models.ConflictReason {
	var booth, teacher, student bool
	for _, b := range bookings {
		if !Overlaps(b.Start, b.End, start, end) {
			continue
		}
		if sameID(c.series.BoothID, b.BoothID) {
			booth = true
		}
		if sameID(c.series.TeacherID, b.TeacherID) {
			teacher = true
		}
		if sameID(c.series.StudentID, b.StudentID) {
			student = true
		}
	}
	var reasons []models.ConflictReason
	if booth {
		reasons = append(reasons, models.ConflictBooth)
	}
	if teacher {
		reasons = append(reasons, models.ConflictTeacher)
	}
	if student {
		reasons = append(reasons, models.ConflictStudent)
	}
	return reasons
}

// Classify runs every check for one candidate without short-circuiting.
func (c *Classifier) Classify(ctx context.Context, date time.Time, start, end int, bookings []Booking) (Classification, error) {
	result := Classification{Resource: c.ResourceConflicts(bookings, start, end)}
	policy := c.series.ConflictPolicy

	hasTeacher := userID(c.series.TeacherID) != ""
	hasStudent := userID(c.series.StudentID) != ""
	// A participant without a linked account has no availability records: zero slots, no absences.
	var teacherUser, studentUser string
	if hasTeacher {
		teacherUser = userID(c.series.TeacherUserID)
	}
	if hasStudent {
		studentUser = userID(c.series.StudentUserID)
	}

	var teacherSlots, studentSlots []Slot
	var err error
	if teacherUser != "" {
		if teacherSlots, err = c.lookups.Slots(ctx, teacherUser, date); err != nil {
			return Classification{}, err
		}
	}
	if studentUser != "" {
		if studentSlots, err = c.lookups.Slots(ctx, studentUser, date); err != nil {
			return Classification{}, err
		}
	}

	route := func(reason models.ConflictReason) {
		if policy.IsHard(reason) {
			result.Hard = append(result.Hard, reason)
			return
		}
		result.Soft = append(result.Soft, reason)
	}

	if hasTeacher && !policy.AllowOutsideAvailability.Teacher && !Covers(teacherSlots, start, end) {
		if len(teacherSlots) == 0 {
			route(models.ConflictTeacherUnavailable)
		} else {
			route(models.ConflictTeacherWrongTime)
		}
	}
	if hasStudent && !policy.AllowOutsideAvailability.Student && !Covers(studentSlots, start, end) {
		if len(studentSlots) == 0 {
			route(models.ConflictStudentUnavailable)
		} else {
			route(models.ConflictStudentWrongTime)
		}
	}

	if hasTeacher && hasStudent && len(teacherSlots) > 0 && len(studentSlots) > 0 {
		if Covers(teacherSlots, start, end) && Covers(studentSlots, start, end) && !SharedCovers(teacherSlots, studentSlots, start, end) {
			route(models.ConflictNoSharedAvailable)
		}
	}

	for _, user := range []string{teacherUser, studentUser} {
		if user == "" {
			continue
		}
		absent, err := c.lookups.HasAbsenceOverlap(ctx, user, start, end, date)
		if err != nil {
			return Classification{}, err
		}
		if absent {
			result.Cancelled = true
		}
	}
	return result, nil
}

// SharedCovers reports whether some teacher slot intersected with some student slot contains
// the whole window.
func SharedCovers(a, b []Slot, start, end int) bool {
	for _, x := range a {
		for _, y := range b {
			lo, hi := x.Start, x.End
			if y.Start > lo {
				lo = y.Start
			}
			if y.End < hi {
				hi = y.End
			}
			if lo < hi && lo <= start && end <= hi {
				return true
			}
		}
	}
	return false
}

// IsOccurrenceOf reports whether b is the occurrence seriesID already materialized for [start, end).
func (b Booking) IsOccurrenceOf(seriesID string, start, end int) bool {
	return b.SeriesID != nil && *b.SeriesID == seriesID && b.Start == start && b.End == end
}

func sameID(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

func userID(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
