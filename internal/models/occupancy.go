package models

// OccupiedCell describes the slot holding a classroom at a time slot.
type OccupiedCell struct {
	SlotID     string     `json:"slot_id" db:"slot_id"`
	GroupID    string     `json:"group_id" db:"group_id"`
	GroupName  string     `json:"group_name" db:"group_name"`
	SubjectID  string     `json:"subject_id" db:"subject_id"`
	TeacherID  *string    `json:"teacher_id,omitempty" db:"teacher_id"`
	LessonType LessonType `json:"lesson_type" db:"lesson_type"`
	WeekParity WeekParity `json:"week_parity" db:"week_parity"`
	StreamID   *string    `json:"stream_id,omitempty" db:"stream_id"`
}

// OccupancyRow is the flat query result behind the occupancy index.
type OccupancyRow struct {
	OccupiedCell
	ClassroomID    string `db:"classroom_id"`
	ClassroomLabel string `db:"classroom_label"`
	TimeSlotNumber int    `db:"time_slot_number"`
}

// RoomOccupancy lists the occupied cells of one classroom keyed by time slot number.
type RoomOccupancy struct {
	ClassroomID string                 `json:"classroom_id"`
	Room        string                 `json:"room"`
	Slots       map[int][]OccupiedCell `json:"slots"`
}

// OccupancyIndex maps classrooms to their occupied time slots for one day.
type OccupancyIndex struct {
	SemesterID string                   `json:"semester_id"`
	DayOfWeek  int                      `json:"day_of_week"`
	Rooms      map[string]RoomOccupancy `json:"rooms"`
}

// WeeklyNeed is the advisory quota for one subject and lesson type.
type WeeklyNeed struct {
	SubjectID   string     `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	LessonType  LessonType `json:"lesson_type"`
	Hours       int        `json:"hours"`
	Pairs       int        `json:"pairs"`
	Needed      int        `json:"needed"`
	Scheduled   int        `json:"scheduled"`
	Remaining   int        `json:"remaining"`
}
