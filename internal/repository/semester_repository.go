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

const semesterColumns = `id, faculty_id, academic_year, number, course_level, shift, start_date, end_date, is_active, created_at, updated_at`

// SemesterRepository handles persistence for semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository instantiates a semester repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters matching provided filters.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	base := "FROM semesters WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.CourseLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("course_level = $%d", len(args)+1))
		args = append(args, filter.CourseLevel)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date DESC, course_level ASC LIMIT %d OFFSET %d", semesterColumns, base, size, offset)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}

// FindByID loads a semester by identifier.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindActiveForScope returns the active semester of a faculty and course level.
func (r *SemesterRepository) FindActiveForScope(ctx context.Context, facultyID string, courseLevel int) (*models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE faculty_id = $1 AND course_level = $2 AND is_active = TRUE ORDER BY updated_at DESC LIMIT 1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, facultyID, courseLevel); err != nil {
		return nil, err
	}
	return &semester, nil
}

// Create inserts a new semester record. Activation goes through Activate.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now
	semester.IsActive = false

	const query = `INSERT INTO semesters (id, faculty_id, academic_year, number, course_level, shift, start_date, end_date, is_active, created_at, updated_at)
VALUES (:id, :faculty_id, :academic_year, :number, :course_level, :shift, :start_date, :end_date, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Activate marks a semester active and deactivates its siblings sharing faculty and course level.
func (r *SemesterRepository) Activate(ctx context.Context, semester *models.Semester) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate semester tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE semesters SET is_active = FALSE, updated_at = $1 WHERE faculty_id = $2 AND course_level = $3 AND is_active = TRUE AND id <> $4`,
		now, semester.FacultyID, semester.CourseLevel, semester.ID); err != nil {
		return fmt.Errorf("deactivate sibling semesters: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE semesters SET is_active = TRUE, updated_at = $2 WHERE id = $1`, semester.ID, now); err != nil {
		return fmt.Errorf("activate semester: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activate semester tx: %w", err)
	}
	return nil
}

// Delete removes a semester together with its slots in one transaction.
func (r *SemesterRepository) Delete(ctx context.Context, id string) (removed int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete semester tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE semester_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete semester slots: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete semester slots rows: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id); err != nil {
		return 0, fmt.Errorf("delete semester: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete semester tx: %w", err)
	}
	return int(affected), nil
}
