package models

import "time"

// EventAudience defines who may see a schedule event.
type EventAudience string

const (
	EventAudiencePrivate   EventAudience = "PRIVATE"
	EventAudienceClassOnly EventAudience = "CLASS_ONLY"
	EventAudienceStudents  EventAudience = "STUDENTS"
	EventAudienceTeachers  EventAudience = "TEACHERS"
	EventAudiencePublic    EventAudience = "PUBLIC"
)

// Valid reports whether the audience is one of the known values.
func (a EventAudience) Valid() bool {
	switch a {
	case EventAudiencePrivate, EventAudienceClassOnly, EventAudienceStudents, EventAudienceTeachers, EventAudiencePublic:
		return true
	default:
		return false
	}
}

// ScheduleEvent represents a persisted schedule event row.
type ScheduleEvent struct {
	ID          string        `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Description *string       `db:"description" json:"description,omitempty"`
	Location    *string       `db:"location" json:"location,omitempty"`
	Audience    EventAudience `db:"audience" json:"audience"`
	StartsAt    time.Time     `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time     `db:"ends_at" json:"ends_at"`
	CreatedBy   string        `db:"created_by" json:"created_by"`
	SubjectID   *string       `db:"subject_id" json:"subject_id,omitempty"`
	SubjectName *string       `db:"subject_name" json:"subject_name,omitempty"`
	TargetClass *string       `db:"target_class" json:"target_class,omitempty"`
	TeacherName *string       `db:"teacher_name" json:"teacher_name,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows down schedule events. Every field is optional; unset
// fields do not constrain the result.
type EventFilter struct {
	From        *time.Time
	To          *time.Time
	Day         *time.Time
	SubjectID   string
	CreatedBy   string
	Audience    EventAudience
	TargetClass string
	Search      string
	Page        int
	PageSize    int
}

// EventPatch carries a partial update; nil fields are left untouched.
type EventPatch struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Location    *string        `json:"location"`
	Audience    *EventAudience `json:"audience"`
	StartsAt    *time.Time     `json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at"`
	SubjectID   *string        `json:"subject_id"`
	SubjectName *string        `json:"subject_name"`
	TargetClass *string        `json:"target_class"`
	TeacherName *string        `json:"teacher_name"`
}

// CalendarSlot is the projected, UI-ready representation of an event within
// a weekday bucket.
type CalendarSlot struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SubjectName string    `json:"subject_name"`
	TeacherName *string   `json:"teacher_name,omitempty"`
	Location    *string   `json:"location,omitempty"`
	SubjectID   *string   `json:"subject_id,omitempty"`
	TargetClass *string   `json:"target_class,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	DurationMin int       `json:"duration_min"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// DayWindow returns the half-open UTC interval [midnight, next midnight)
// covering the calendar day of the supplied instant.
func DayWindow(day time.Time) (time.Time, time.Time) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
