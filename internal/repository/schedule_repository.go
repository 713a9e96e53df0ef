package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/unitime-api/internal/models"
)

const scheduleSlotColumns = `id, group_id, subject_id, teacher_id, lesson_type, week_parity, semester_id, day_of_week, time_slot_id,
to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time,
classroom_id, room_text, is_active, stream_id, is_military, created_at, updated_at`

// ScheduleSlotRepository provides persistence for schedule slots.
type ScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewScheduleSlotRepository creates a new schedule slot repository.
func NewScheduleSlotRepository(db *sqlx.DB) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

func (r *ScheduleSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a slot by id.
func (r *ScheduleSlotRepository) FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	query := `SELECT ` + scheduleSlotColumns + ` FROM schedule_slots WHERE id = $1`
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListAtPosition returns active slots occupying a semester/day/time-slot cell.
func (r *ScheduleSlotRepository) ListAtPosition(ctx context.Context, exec sqlx.ExtContext, pos models.SlotPosition) ([]models.ScheduleSlot, error) {
	query := `SELECT ` + scheduleSlotColumns + ` FROM schedule_slots WHERE semester_id = $1 AND day_of_week = $2 AND time_slot_id = $3 AND is_active = TRUE ORDER BY created_at ASC`
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, pos.SemesterID, pos.DayOfWeek, pos.TimeSlotID); err != nil {
		return nil, fmt.Errorf("list slots at position: %w", err)
	}
	return slots, nil
}

// ListByStream returns every slot sharing a stream id.
func (r *ScheduleSlotRepository) ListByStream(ctx context.Context, exec sqlx.ExtContext, streamID string) ([]models.ScheduleSlot, error) {
	query := `SELECT ` + scheduleSlotColumns + ` FROM schedule_slots WHERE stream_id = $1 ORDER BY created_at ASC`
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, streamID); err != nil {
		return nil, fmt.Errorf("list slots by stream: %w", err)
	}
	return slots, nil
}

// ListByGroupDay returns active slots of a group on one day of a semester.
func (r *ScheduleSlotRepository) ListByGroupDay(ctx context.Context, exec sqlx.ExtContext, groupID, semesterID string, day int) ([]models.ScheduleSlot, error) {
	query := `SELECT ` + scheduleSlotColumns + ` FROM schedule_slots WHERE group_id = $1 AND semester_id = $2 AND day_of_week = $3 AND is_active = TRUE`
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, groupID, semesterID, day); err != nil {
		return nil, fmt.Errorf("list group day slots: %w", err)
	}
	return slots, nil
}

// ListByGroup returns a group's active slots for a semester ordered by day/time.
func (r *ScheduleSlotRepository) ListByGroup(ctx context.Context, groupID, semesterID string) ([]models.ScheduleSlot, error) {
	query := `SELECT ` + scheduleSlotColumns + ` FROM schedule_slots WHERE group_id = $1 AND semester_id = $2 AND is_active = TRUE ORDER BY day_of_week ASC, start_time ASC`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, groupID, semesterID); err != nil {
		return nil, fmt.Errorf("list slots by group: %w", err)
	}
	return slots, nil
}

// ListRoomOccupants returns active slots holding a classroom at a cell, in the cell's semester
// or any active semester. Rooms are shared between faculties and course levels.
func (r *ScheduleSlotRepository) ListRoomOccupants(ctx context.Context, exec sqlx.ExtContext, classroomID string, pos models.SlotPosition) ([]models.ScheduleSlot, error) {
	query := `SELECT ` + scheduleSlotColumns + ` FROM schedule_slots
WHERE classroom_id = $1 AND day_of_week = $3 AND time_slot_id = $4 AND is_active = TRUE
AND (semester_id = $2 OR semester_id IN (SELECT id FROM semesters WHERE is_active = TRUE))
ORDER BY semester_id, id`
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, classroomID, pos.SemesterID, pos.DayOfWeek, pos.TimeSlotID); err != nil {
		return nil, fmt.Errorf("list room occupants: %w", err)
	}
	return slots, nil
}

type scheduledCount struct {
	SubjectID  string            `db:"subject_id"`
	LessonType models.LessonType `db:"lesson_type"`
	Total      int               `db:"total"`
}

// CountByGroup counts active slots per subject and lesson type for a group.
func (r *ScheduleSlotRepository) CountByGroup(ctx context.Context, groupID, semesterID string) (map[string]map[models.LessonType]int, error) {
	const query = `SELECT subject_id, lesson_type, COUNT(*) AS total FROM schedule_slots WHERE group_id = $1 AND semester_id = $2 AND is_active = TRUE GROUP BY subject_id, lesson_type`
	var rows []scheduledCount
	if err := r.db.SelectContext(ctx, &rows, query, groupID, semesterID); err != nil {
		return nil, fmt.Errorf("count group slots: %w", err)
	}
	result := make(map[string]map[models.LessonType]int)
	for _, row := range rows {
		if result[row.SubjectID] == nil {
			result[row.SubjectID] = make(map[models.LessonType]int)
		}
		result[row.SubjectID][row.LessonType] = row.Total
	}
	return result, nil
}

// Occupancy returns room-bound active slots of one day, optionally restricted to an institute.
// An empty semester id covers every active semester.
func (r *ScheduleSlotRepository) Occupancy(ctx context.Context, semesterID string, day int, instituteID string) ([]models.OccupancyRow, error) {
	query := `SELECT s.id AS slot_id, s.group_id, g.name AS group_name, s.subject_id, s.teacher_id, s.lesson_type, s.week_parity, s.stream_id,
c.id AS classroom_id, b.name || '-' || c.number AS classroom_label, t.number AS time_slot_number
FROM schedule_slots s
JOIN classrooms c ON c.id = s.classroom_id
JOIN buildings b ON b.id = c.building_id
JOIN time_slots t ON t.id = s.time_slot_id
JOIN groups g ON g.id = s.group_id
WHERE s.day_of_week = $1 AND s.is_active = TRUE`
	args := []interface{}{day}
	if semesterID != "" {
		args = append(args, semesterID)
		query += fmt.Sprintf(" AND s.semester_id = $%d", len(args))
	} else {
		query += " AND s.semester_id IN (SELECT id FROM semesters WHERE is_active = TRUE)"
	}
	if instituteID != "" {
		args = append(args, instituteID)
		query += fmt.Sprintf(" AND b.institute_id = $%d", len(args))
	}
	query += " ORDER BY classroom_label ASC, t.number ASC"

	var rows []models.OccupancyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load occupancy: %w", err)
	}
	return rows, nil
}

// CreateBatch inserts slots using the provided executor.
func (r *ScheduleSlotRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.ScheduleSlot) error {
	const query = `INSERT INTO schedule_slots (id, group_id, subject_id, teacher_id, lesson_type, week_parity, semester_id, day_of_week, time_slot_id, start_time, end_time, classroom_id, room_text, is_active, stream_id, is_military, created_at, updated_at)
VALUES (:id, :group_id, :subject_id, :teacher_id, :lesson_type, :week_parity, :semester_id, :day_of_week, :time_slot_id, :start_time, :end_time, :classroom_id, :room_text, :is_active, :stream_id, :is_military, :created_at, :updated_at)`

	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		slot.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("create schedule slot: %w", err)
		}
	}
	return nil
}

// DeleteByIDs removes the given slots and returns the number deleted.
func (r *ScheduleSlotRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM schedule_slots WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete schedule slots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete schedule slots rows: %w", err)
	}
	return int(affected), nil
}

// UpdateRoom assigns a classroom to the given slots.
func (r *ScheduleSlotRepository) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, ids []string, classroomID, roomText string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE schedule_slots SET classroom_id = $1, room_text = $2, updated_at = $3 WHERE id = ANY($4)`
	if _, err := r.exec(exec).ExecContext(ctx, query, classroomID, roomText, time.Now().UTC(), pq.Array(ids)); err != nil {
		return fmt.Errorf("update slot room: %w", err)
	}
	return nil
}

// DeleteByStream removes every slot of a stream.
func (r *ScheduleSlotRepository) DeleteByStream(ctx context.Context, exec sqlx.ExtContext, streamID string) (int, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM schedule_slots WHERE stream_id = $1`, streamID)
	if err != nil {
		return 0, fmt.Errorf("delete stream slots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stream slots rows: %w", err)
	}
	return int(affected), nil
}

// UpdateRoomByStream moves every slot of a stream into a classroom.
func (r *ScheduleSlotRepository) UpdateRoomByStream(ctx context.Context, exec sqlx.ExtContext, streamID, classroomID, roomText string) (int, error) {
	const query = `UPDATE schedule_slots SET classroom_id = $1, room_text = $2, updated_at = $3 WHERE stream_id = $4`
	res, err := r.exec(exec).ExecContext(ctx, query, classroomID, roomText, time.Now().UTC(), streamID)
	if err != nil {
		return 0, fmt.Errorf("update stream room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update stream room rows: %w", err)
	}
	return int(affected), nil
}

// DeleteByGroupDay removes a group's active slots on one day of a semester.
func (r *ScheduleSlotRepository) DeleteByGroupDay(ctx context.Context, exec sqlx.ExtContext, groupID, semesterID string, day int) (int, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM schedule_slots WHERE group_id = $1 AND semester_id = $2 AND day_of_week = $3 AND is_active = TRUE`, groupID, semesterID, day)
	if err != nil {
		return 0, fmt.Errorf("delete group day slots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete group day slots rows: %w", err)
	}
	return int(affected), nil
}
