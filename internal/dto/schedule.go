package dto

// CreateSlotRequest is the create_slot payload, checked while binding. When IsMilitaryDay is set only group, day and semester are read.
type CreateSlotRequest struct {
	GroupID       string `json:"group" binding:"required"`
	SubjectID     string `json:"subject" binding:"required_unless=IsMilitaryDay true"`
	DayOfWeek     int    `json:"day_of_week" binding:"min=0,max=5"`
	TimeSlotID    string `json:"time_slot" binding:"required_unless=IsMilitaryDay true"`
	LessonType    string `json:"lesson_type" binding:"required_unless=IsMilitaryDay true"`
	WeekParity    string `json:"week_parity" binding:"omitempty,oneof=every red blue"`
	SemesterID    string `json:"semester_id"`
	Force         bool   `json:"force"`
	IsMilitaryDay bool   `json:"is_military_day"`
}

// AssignmentRequest asks the engine to place one session.
type AssignmentRequest struct {
	GroupID    string `json:"group" validate:"required"`
	SubjectID  string `json:"subject" validate:"required"`
	DayOfWeek  int    `json:"day_of_week" validate:"min=0,max=5"`
	TimeSlotID string `json:"time_slot" validate:"required"`
	LessonType string `json:"lesson_type" validate:"required,oneof=LECTURE PRACTICE SRSP"`
	WeekParity string `json:"week_parity" validate:"omitempty,oneof=every red blue"`
	SemesterID string `json:"semester_id"`
	Force      bool   `json:"force"`
}

// ConflictCheckRequest mirrors AssignmentRequest and may name a room to check as well.
type ConflictCheckRequest struct {
	AssignmentRequest
	Room string `json:"room"`
}

// SpecialDayRequest fills a group's day with the special activity.
type SpecialDayRequest struct {
	GroupID    string `json:"group" validate:"required"`
	DayOfWeek  int    `json:"day_of_week" validate:"min=0,max=5"`
	SemesterID string `json:"semester_id"`
}

// UpdateRoomRequest moves a slot, or its whole stream, into a classroom.
type UpdateRoomRequest struct {
	SlotID string `json:"slot_id" validate:"required"`
	Room   string `json:"room" validate:"required"`
	Force  bool   `json:"force"`
}

// DeleteSlotRequest removes a slot or its stream.
type DeleteSlotRequest struct {
	SlotID string `json:"slot_id" validate:"required"`
}

// CreateExceptionRequest records a one-off cancellation or reschedule.
type CreateExceptionRequest struct {
	ExceptionDate  string  `json:"exception_date" validate:"required,datetime=2006-01-02"`
	ExceptionType  string  `json:"exception_type" validate:"required,oneof=cancel reschedule"`
	Reason         string  `json:"reason" validate:"max=500"`
	NewDate        *string `json:"new_date" validate:"omitempty,datetime=2006-01-02"`
	NewStartTime   *string `json:"new_start_time" validate:"omitempty,datetime=15:04"`
	NewEndTime     *string `json:"new_end_time" validate:"omitempty,datetime=15:04"`
	NewClassroomID *string `json:"new_classroom_id"`
}

// CreateSemesterRequest registers a calendar period. New semesters start inactive.
type CreateSemesterRequest struct {
	FacultyID    string `json:"faculty_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Number       int    `json:"number" validate:"required,oneof=1 2"`
	CourseLevel  int    `json:"course_level" validate:"required,min=1,max=5"`
	Shift        string `json:"shift" validate:"required,oneof=morning day evening"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// CreateTimeSlotRequest adds a row to a time grid. Empty InstituteID writes the global grid.
type CreateTimeSlotRequest struct {
	InstituteID string `json:"institute_id"`
	Shift       string `json:"shift" validate:"required,oneof=morning day evening"`
	Number      int    `json:"number" validate:"required,min=1,max=12"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
}

// CreateClassroomRequest registers a classroom.
type CreateClassroomRequest struct {
	BuildingID string `json:"building_id" validate:"required"`
	Number     string `json:"number" validate:"required,max=20"`
	Floor      int    `json:"floor" validate:"min=-3,max=50"`
	Capacity   int    `json:"capacity" validate:"required,min=1"`
	RoomType   string `json:"room_type" validate:"max=50"`
}
