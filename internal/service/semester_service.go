package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Activate(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id string) (int, error)
}

type semesterCacheInvalidator interface {
	InvalidateSemester(ctx context.Context, semesterID string)
}

// SemesterService manages calendar periods and their exclusive active flag.
type SemesterService struct {
	repo      semesterRepository
	occupancy semesterCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService creates a new semester service instance.
func NewSemesterService(repo semesterRepository, occupancy semesterCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, occupancy: occupancy, validator: validate, logger: logger}
}

// List returns paginated semesters.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return semesters, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a semester by id.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// Create registers a semester. It starts inactive; use Activate to make it current.
func (s *SemesterService) Create(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_date")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_date")
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}

	semester := &models.Semester{
		FacultyID:    req.FacultyID,
		AcademicYear: req.AcademicYear,
		Number:       req.Number,
		CourseLevel:  req.CourseLevel,
		Shift:        models.Shift(req.Shift),
		StartDate:    start,
		EndDate:      end,
	}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// Activate makes the semester current and deactivates every sibling of the same faculty and course level.
func (s *SemesterService) Activate(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Activate(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate semester")
	}
	semester.IsActive = true
	s.logger.Info("semester activated",
		zap.String("semester_id", semester.ID),
		zap.String("faculty_id", semester.FacultyID),
		zap.Int("course_level", semester.CourseLevel),
	)
	if s.occupancy != nil {
		s.occupancy.InvalidateSemester(ctx, semester.ID)
	}
	return semester, nil
}

// Delete removes a semester together with all of its slots.
func (s *SemesterService) Delete(ctx context.Context, id string) (int, error) {
	semester, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	removed, err := s.repo.Delete(ctx, semester.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}
	s.logger.Info("semester deleted", zap.String("semester_id", semester.ID), zap.Int("slots_removed", removed))
	if s.occupancy != nil {
		s.occupancy.InvalidateSemester(ctx, semester.ID)
	}
	return removed, nil
}

// resolveSemester applies one rule everywhere: an explicit id wins, otherwise the group's active semester.
func resolveSemester(ctx context.Context, semesters semesterResolver, semesterID string, group *models.Group) (*models.Semester, error) {
	if semesterID != "" {
		semester, err := semesters.FindByID(ctx, semesterID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
		}
		return semester, nil
	}

	semester, err := semesters.FindActiveForScope(ctx, group.FacultyID, group.CourseLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveSemester, fmt.Sprintf("no active semester for course %d of the group's faculty", group.CourseLevel))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve active semester")
	}
	return semester, nil
}
