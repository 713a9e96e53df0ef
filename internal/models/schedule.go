package models

import (
	"fmt"
	"strings"
	"time"
)

// WeekParity selects which academic weeks a slot runs on.
type WeekParity string

const (
	ParityEvery WeekParity = "every"
	ParityRed   WeekParity = "red"
	ParityBlue  WeekParity = "blue"
)

// Overlaps reports whether two parities can occupy the same week.
func (p WeekParity) Overlaps(other WeekParity) bool {
	if p == "" {
		p = ParityEvery
	}
	if other == "" {
		other = ParityEvery
	}
	return p == ParityEvery || other == ParityEvery || p == other
}

// ScheduleSlot is one recurring session of a group. Slots sharing a StreamID form one stream lecture.
type ScheduleSlot struct {
	ID          string     `db:"id" json:"id"`
	GroupID     string     `db:"group_id" json:"group_id"`
	SubjectID   string     `db:"subject_id" json:"subject_id"`
	TeacherID   *string    `db:"teacher_id" json:"teacher_id,omitempty"`
	LessonType  LessonType `db:"lesson_type" json:"lesson_type"`
	WeekParity  WeekParity `db:"week_parity" json:"week_parity"`
	SemesterID  string     `db:"semester_id" json:"semester_id"`
	DayOfWeek   int        `db:"day_of_week" json:"day_of_week"`
	TimeSlotID  string     `db:"time_slot_id" json:"time_slot_id"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	ClassroomID *string    `db:"classroom_id" json:"classroom_id,omitempty"`
	RoomText    *string    `db:"room_text" json:"room_text,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	StreamID    *string    `db:"stream_id" json:"stream_id,omitempty"`
	IsMilitary  bool       `db:"is_military" json:"is_military"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// InStream reports whether the slot is part of a multi-group stream.
func (s ScheduleSlot) InStream() bool {
	return s.StreamID != nil && *s.StreamID != ""
}

// SameStream reports whether both slots belong to the same stream.
func (s ScheduleSlot) SameStream(other ScheduleSlot) bool {
	return s.InStream() && other.InStream() && *s.StreamID == *other.StreamID
}

// SlotPosition pins a lookup to a semester/day/time-slot cell.
type SlotPosition struct {
	SemesterID string
	DayOfWeek  int
	TimeSlotID string
}

// ConflictKind tags the resource that collided.
type ConflictKind string

const (
	ConflictGroup   ConflictKind = "GROUP"
	ConflictTeacher ConflictKind = "TEACHER"
	ConflictRoom    ConflictKind = "ROOM"
)

// ScheduleConflict describes an existing slot that blocks a candidate.
type ScheduleConflict struct {
	Kind        ConflictKind `json:"kind"`
	SlotID      string       `json:"slot_id"`
	GroupID     string       `json:"group_id"`
	SubjectID   string       `json:"subject_id"`
	TeacherID   *string      `json:"teacher_id,omitempty"`
	ClassroomID *string      `json:"classroom_id,omitempty"`
	DayOfWeek   int          `json:"day_of_week"`
	TimeSlotID  string       `json:"time_slot_id"`
	Message     string       `json:"message"`
}

// JoinConflictMessages renders conflicts as one human readable line.
func JoinConflictMessages(conflicts []ScheduleConflict) string {
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, c.Message)
	}
	return strings.Join(parts, "; ")
}

// CapacityWarning reports a classroom too small for the enrolled students.
type CapacityWarning struct {
	ClassroomID string `json:"classroom_id"`
	Room        string `json:"room"`
	Capacity    int    `json:"capacity"`
	Students    int    `json:"students"`
}

// Message renders the warning for clients.
func (w CapacityWarning) Message() string {
	return fmt.Sprintf("room %s seats %d but %d students are enrolled", w.Room, w.Capacity, w.Students)
}

// OutcomeKind tags an assignment result.
type OutcomeKind string

const (
	OutcomeCommitted OutcomeKind = "committed"
	OutcomeConflict  OutcomeKind = "conflict"
	OutcomeWarning   OutcomeKind = "warning"
)

// AssignmentOutcome is the result of a write that may soft-fail.
// Conflict and Warning outcomes persist nothing; callers may resubmit with force.
type AssignmentOutcome struct {
	Kind      OutcomeKind        `json:"kind"`
	Count     int                `json:"count"`
	IsStream  bool               `json:"is_stream"`
	StreamID  *string            `json:"stream_id,omitempty"`
	Slots     []ScheduleSlot     `json:"slots,omitempty"`
	Room      string             `json:"room,omitempty"`
	Conflicts []ScheduleConflict `json:"conflicts,omitempty"`
	Warning   *CapacityWarning   `json:"warning,omitempty"`
}

// Committed reports whether the outcome persisted data.
func (o *AssignmentOutcome) Committed() bool {
	return o != nil && o.Kind == OutcomeCommitted
}

// DeleteResult reports how many slots a delete removed.
type DeleteResult struct {
	Count    int  `json:"count"`
	IsStream bool `json:"is_stream"`
}
