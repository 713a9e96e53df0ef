package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/unitime-api/internal/models"
)

// ErrDuplicateException signals the (slot, date) unique index rejected an insert.
var ErrDuplicateException = errors.New("schedule exception already exists")

const exceptionColumns = `id, schedule_slot_id, exception_type, exception_date, reason, new_date,
to_char(new_start_time, 'HH24:MI') AS new_start_time, to_char(new_end_time, 'HH24:MI') AS new_end_time, new_classroom_id, created_at`

// ExceptionRepository persists one-off deviations from recurring slots.
type ExceptionRepository struct {
	db *sqlx.DB
}

// NewExceptionRepository constructs the repository.
func NewExceptionRepository(db *sqlx.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// ExistsForDate checks whether the slot already has an exception on the date.
func (r *ExceptionRepository) ExistsForDate(ctx context.Context, slotID string, date time.Time) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM schedule_exceptions WHERE schedule_slot_id = $1 AND exception_date = $2 LIMIT 1`, slotID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check schedule exception: %w", err)
	}
	return true, nil
}

// Create inserts an exception.
func (r *ExceptionRepository) Create(ctx context.Context, exception *models.ScheduleException) error {
	if exception.ID == "" {
		exception.ID = uuid.NewString()
	}
	if exception.CreatedAt.IsZero() {
		exception.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schedule_exceptions (id, schedule_slot_id, exception_type, exception_date, reason, new_date, new_start_time, new_end_time, new_classroom_id, created_at)
VALUES (:id, :schedule_slot_id, :exception_type, :exception_date, :reason, :new_date, :new_start_time, :new_end_time, :new_classroom_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exception); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateException
		}
		return fmt.Errorf("create schedule exception: %w", err)
	}
	return nil
}

// ListBySlot returns exceptions for a slot ordered by date.
func (r *ExceptionRepository) ListBySlot(ctx context.Context, slotID string) ([]models.ScheduleException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM schedule_exceptions WHERE schedule_slot_id = $1 ORDER BY exception_date ASC`
	var items []models.ScheduleException
	if err := r.db.SelectContext(ctx, &items, query, slotID); err != nil {
		return nil, fmt.Errorf("list schedule exceptions: %w", err)
	}
	return items, nil
}

// FindByID loads an exception.
func (r *ExceptionRepository) FindByID(ctx context.Context, id string) (*models.ScheduleException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM schedule_exceptions WHERE id = $1`
	var item models.ScheduleException
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an exception.
func (r *ExceptionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_exceptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule exception: %w", err)
	}
	return nil
}
