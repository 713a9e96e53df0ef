package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unitime-api/internal/models"
)

const timeSlotColumns = `id, institute_id, shift, number, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, duration_minutes, created_at`

// TimeSlotRepository stores the time grid.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// FindByID loads a time slot.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM time_slots WHERE id = $1`
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListForInstitute returns the institute grid for a shift, falling back to the global grid when the institute has none.
func (r *TimeSlotRepository) ListForInstitute(ctx context.Context, instituteID string, shift models.Shift) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	if instituteID != "" {
		query := `SELECT ` + timeSlotColumns + ` FROM time_slots WHERE institute_id = $1 AND shift = $2 ORDER BY number ASC`
		if err := r.db.SelectContext(ctx, &slots, query, instituteID, shift); err != nil {
			return nil, fmt.Errorf("list institute time slots: %w", err)
		}
		if len(slots) > 0 {
			return slots, nil
		}
	}

	query := `SELECT ` + timeSlotColumns + ` FROM time_slots WHERE institute_id IS NULL AND shift = $1 ORDER BY number ASC`
	if err := r.db.SelectContext(ctx, &slots, query, shift); err != nil {
		return nil, fmt.Errorf("list global time slots: %w", err)
	}
	return slots, nil
}

// Create inserts a time slot. Uniqueness per (institute, start_time) is enforced by the schema.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO time_slots (id, institute_id, shift, number, start_time, end_time, duration_minutes, created_at)
VALUES (:id, :institute_id, :shift, :number, :start_time, :end_time, :duration_minutes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}
