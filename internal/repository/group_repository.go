package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/unitime-api/internal/models"
)

// GroupRepository reads groups and institutes owned by the enrollment side.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository instantiates the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// FindByID loads a group with its roster size.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, name, institute_id, faculty_id, course_level, shift, student_count FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByIDs loads several groups at once.
func (r *GroupRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, institute_id, faculty_id, course_level, shift, student_count FROM groups WHERE id = ANY($1) ORDER BY name ASC`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	return groups, nil
}

// FindInstitute loads the hour constants of an institute.
func (r *GroupRepository) FindInstitute(ctx context.Context, id string) (*models.Institute, error) {
	const query = `SELECT id, name, pair_duration_minutes, academic_hour_minutes FROM institutes WHERE id = $1`
	var institute models.Institute
	if err := r.db.GetContext(ctx, &institute, query, id); err != nil {
		return nil, err
	}
	return &institute, nil
}

// FacultyInstitute resolves the institute owning a faculty.
func (r *GroupRepository) FacultyInstitute(ctx context.Context, facultyID string) (string, error) {
	var instituteID string
	if err := r.db.GetContext(ctx, &instituteID, `SELECT institute_id FROM faculties WHERE id = $1`, facultyID); err != nil {
		return "", err
	}
	return instituteID, nil
}
