package models

import "time"

// TimeSlot is a numbered lesson window of an institute's grid. A nil InstituteID marks the global grid.
type TimeSlot struct {
	ID              string    `db:"id" json:"id"`
	InstituteID     *string   `db:"institute_id" json:"institute_id,omitempty"`
	Shift           Shift     `db:"shift" json:"shift"`
	Number          int       `db:"number" json:"number"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// TimeSlotFilter narrows time slot listings.
type TimeSlotFilter struct {
	InstituteID string
	Shift       Shift
}
