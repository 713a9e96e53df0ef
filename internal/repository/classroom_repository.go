package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unitime-api/internal/models"
)

const classroomSelect = `SELECT c.id, c.building_id, b.name AS building_name, b.institute_id, c.number, c.floor, c.capacity, c.room_type, c.is_active, c.created_at
FROM classrooms c JOIN buildings b ON b.id = c.building_id`

// ClassroomRepository manages classrooms.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository builds repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// FindByID loads a classroom with its building.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, classroomSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// FindActiveByNumber returns every active classroom carrying the number across buildings.
func (r *ClassroomRepository) FindActiveByNumber(ctx context.Context, number string) ([]models.Classroom, error) {
	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, classroomSelect+` WHERE c.number = $1 AND c.is_active = TRUE ORDER BY b.name ASC`, number); err != nil {
		return nil, fmt.Errorf("find classrooms by number: %w", err)
	}
	return rooms, nil
}

// List returns classrooms matching the filter.
func (r *ClassroomRepository) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error) {
	var conditions []string
	var args []interface{}
	if filter.InstituteID != "" {
		conditions = append(conditions, fmt.Sprintf("b.institute_id = $%d", len(args)+1))
		args = append(args, filter.InstituteID)
	}
	if filter.BuildingID != "" {
		conditions = append(conditions, fmt.Sprintf("c.building_id = $%d", len(args)+1))
		args = append(args, filter.BuildingID)
	}
	if filter.Number != "" {
		conditions = append(conditions, fmt.Sprintf("c.number = $%d", len(args)+1))
		args = append(args, filter.Number)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "c.is_active = TRUE")
	}

	query := classroomSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY b.name ASC, c.number ASC"

	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return rooms, nil
}

// Create inserts a classroom.
func (r *ClassroomRepository) Create(ctx context.Context, room *models.Classroom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classrooms (id, building_id, number, floor, capacity, room_type, is_active, created_at)
VALUES (:id, :building_id, :number, :floor, :capacity, :room_type, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// FindBuilding loads a building.
func (r *ClassroomRepository) FindBuilding(ctx context.Context, id string) (*models.Building, error) {
	var building models.Building
	if err := r.db.GetContext(ctx, &building, `SELECT id, institute_id, name FROM buildings WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &building, nil
}
