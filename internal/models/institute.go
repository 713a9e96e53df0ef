package models

// Shift partitions an institute's time grid.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftDay     Shift = "day"
	ShiftEvening Shift = "evening"
)

// Valid reports whether the shift is one of the known values.
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftDay, ShiftEvening:
		return true
	}
	return false
}

// Institute owns buildings, faculties, groups and an optional time grid.
type Institute struct {
	ID                  string `db:"id" json:"id"`
	Name                string `db:"name" json:"name"`
	PairDurationMinutes int    `db:"pair_duration_minutes" json:"pair_duration_minutes"`
	AcademicHourMinutes int    `db:"academic_hour_minutes" json:"academic_hour_minutes"`
}

// HourRatio is pair_duration / academic_hour_duration, kept as whole minutes so
// pair counts are computed without floating point.
type HourRatio struct {
	PairMinutes int `json:"pair_minutes"`
	HourMinutes int `json:"hour_minutes"`
}

// UnitRatio counts one pair per academic hour.
var UnitRatio = HourRatio{PairMinutes: 1, HourMinutes: 1}

// Valid reports whether both durations are positive.
func (r HourRatio) Valid() bool {
	return r.PairMinutes > 0 && r.HourMinutes > 0
}

// HourRatio returns the institute's conversion. Unknown durations fall back to UnitRatio.
func (i *Institute) HourRatio() HourRatio {
	if i == nil {
		return UnitRatio
	}
	ratio := HourRatio{PairMinutes: i.PairDurationMinutes, HourMinutes: i.AcademicHourMinutes}
	if !ratio.Valid() {
		return UnitRatio
	}
	return ratio
}

// Group is a student cohort. Roster management lives outside this service.
type Group struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	InstituteID  string `db:"institute_id" json:"institute_id"`
	FacultyID    string `db:"faculty_id" json:"faculty_id"`
	CourseLevel  int    `db:"course_level" json:"course_level"`
	Shift        Shift  `db:"shift" json:"shift"`
	StudentCount int    `db:"student_count" json:"student_count"`
}
