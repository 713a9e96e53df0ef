package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unitime-api/internal/models"
)

const subjectColumns = `id, code, name, department, type, lecture_hours, practice_hours, control_hours, independent_hours, semester_weeks, is_stream_subject, teacher_id, institute_id, created_at, updated_at`

// SubjectRepository reads the scheduling catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID loads a subject.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByCode loads a subject by its unique code.
func (r *SubjectRepository) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE code = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, code); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListGroupIDs returns the groups attached to a subject.
func (r *SubjectRepository) ListGroupIDs(ctx context.Context, subjectID string) ([]string, error) {
	const query = `SELECT group_id FROM subject_groups WHERE subject_id = $1 ORDER BY group_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject groups: %w", err)
	}
	return ids, nil
}

// ListByGroup returns subjects attached to a group.
func (r *SubjectRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Subject, error) {
	const query = `SELECT s.id, s.code, s.name, s.department, s.type, s.lecture_hours, s.practice_hours, s.control_hours, s.independent_hours, s.semester_weeks, s.is_stream_subject, s.teacher_id, s.institute_id, s.created_at, s.updated_at
FROM subjects s JOIN subject_groups sg ON sg.subject_id = s.id WHERE sg.group_id = $1 ORDER BY s.name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, groupID); err != nil {
		return nil, fmt.Errorf("list subjects by group: %w", err)
	}
	return subjects, nil
}
