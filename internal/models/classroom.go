package models

import (
	"fmt"
	"time"
)

// Building groups classrooms under an institute.
type Building struct {
	ID          string `db:"id" json:"id"`
	InstituteID string `db:"institute_id" json:"institute_id"`
	Name        string `db:"name" json:"name"`
}

// Classroom is a bookable room.
type Classroom struct {
	ID           string    `db:"id" json:"id"`
	BuildingID   string    `db:"building_id" json:"building_id"`
	BuildingName string    `db:"building_name" json:"building_name"`
	InstituteID  string    `db:"institute_id" json:"institute_id"`
	Number       string    `db:"number" json:"number"`
	Floor        int       `db:"floor" json:"floor"`
	Capacity     int       `db:"capacity" json:"capacity"`
	RoomType     string    `db:"room_type" json:"room_type"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DisplayName renders the room the way timetables print it.
func (c Classroom) DisplayName() string {
	if c.BuildingName == "" {
		return c.Number
	}
	return fmt.Sprintf("%s-%s", c.BuildingName, c.Number)
}

// ClassroomFilter narrows classroom listings.
type ClassroomFilter struct {
	InstituteID string
	BuildingID  string
	Number      string
	ActiveOnly  bool
}
