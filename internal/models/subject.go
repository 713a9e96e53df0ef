package models

import "time"

// LessonType identifies how a subject's hours are taught.
type LessonType string

const (
	LessonLecture  LessonType = "LECTURE"
	LessonPractice LessonType = "PRACTICE"
	LessonSRSP     LessonType = "SRSP"
)

// LessonTypes lists lesson types in display order.
var LessonTypes = []LessonType{LessonLecture, LessonPractice, LessonSRSP}

// Subject carries the hour breakdown used for weekly quotas.
type Subject struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	Department       string    `db:"department" json:"department"`
	Type             string    `db:"type" json:"type"`
	LectureHours     int       `db:"lecture_hours" json:"lecture_hours"`
	PracticeHours    int       `db:"practice_hours" json:"practice_hours"`
	ControlHours     int       `db:"control_hours" json:"control_hours"`
	IndependentHours int       `db:"independent_hours" json:"independent_hours"`
	SemesterWeeks    int       `db:"semester_weeks" json:"semester_weeks"`
	IsStreamSubject  bool      `db:"is_stream_subject" json:"is_stream_subject"`
	TeacherID        *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	InstituteID      *string   `db:"institute_id" json:"institute_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// HoursFor returns the hours budget for a lesson type.
func (s Subject) HoursFor(t LessonType) int {
	switch t {
	case LessonLecture:
		return s.LectureHours
	case LessonPractice:
		return s.PracticeHours
	case LessonSRSP:
		return s.ControlHours
	}
	return 0
}

// TotalHours sums every hour category.
func (s Subject) TotalHours() int {
	return s.LectureHours + s.PracticeHours + s.ControlHours + s.IndependentHours
}

// TotalAuditoryHours sums contact hours.
func (s Subject) TotalAuditoryHours() int {
	return s.LectureHours + s.PracticeHours + s.ControlHours
}

// TotalCredits uses 24 hours per credit.
func (s Subject) TotalCredits() float64 {
	return float64(s.TotalHours()) / 24
}

// SubjectDetail adds derived figures and attached groups for responses.
type SubjectDetail struct {
	Subject
	TotalHours         int      `json:"total_hours"`
	TotalAuditoryHours int      `json:"total_auditory_hours"`
	TotalCredits       float64  `json:"total_credits"`
	GroupIDs           []string `json:"group_ids"`
}
