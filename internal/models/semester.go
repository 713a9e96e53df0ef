package models

import "time"

// Semester is the calendar period slots belong to.
type Semester struct {
	ID           string    `db:"id" json:"id"`
	FacultyID    string    `db:"faculty_id" json:"faculty_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Number       int       `db:"number" json:"number"`
	CourseLevel  int       `db:"course_level" json:"course_level"`
	Shift        Shift     `db:"shift" json:"shift"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterFilter defines filters supported by list endpoints.
type SemesterFilter struct {
	FacultyID    string
	AcademicYear string
	CourseLevel  int
	IsActive     *bool
	Page         int
	PageSize     int
}
