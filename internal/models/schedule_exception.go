package models

import "time"

// ExceptionType distinguishes cancellations from reschedules.
type ExceptionType string

const (
	ExceptionCancel     ExceptionType = "cancel"
	ExceptionReschedule ExceptionType = "reschedule"
)

// ScheduleException is a one-off deviation from a recurring slot.
type ScheduleException struct {
	ID             string        `db:"id" json:"id"`
	ScheduleSlotID string        `db:"schedule_slot_id" json:"schedule_slot_id"`
	ExceptionType  ExceptionType `db:"exception_type" json:"exception_type"`
	ExceptionDate  time.Time     `db:"exception_date" json:"exception_date"`
	Reason         string        `db:"reason" json:"reason"`
	NewDate        *time.Time    `db:"new_date" json:"new_date,omitempty"`
	NewStartTime   *string       `db:"new_start_time" json:"new_start_time,omitempty"`
	NewEndTime     *string       `db:"new_end_time" json:"new_end_time,omitempty"`
	NewClassroomID *string       `db:"new_classroom_id" json:"new_classroom_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
