package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error)
	Create(ctx context.Context, room *models.Classroom) error
}

// ClassroomService manages bookable rooms.
type ClassroomService struct {
	repo      classroomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassroomService constructs the service.
func NewClassroomService(repo classroomRepository, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{repo: repo, validator: validate, logger: logger}
}

// List returns classrooms matching the filter.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, error) {
	rooms, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	if rooms == nil {
		rooms = []models.Classroom{}
	}
	return rooms, nil
}

// Create registers a classroom in a building.
func (s *ClassroomService) Create(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}

	room := &models.Classroom{
		BuildingID: req.BuildingID,
		Number:     strings.TrimSpace(req.Number),
		Floor:      req.Floor,
		Capacity:   req.Capacity,
		RoomType:   strings.TrimSpace(req.RoomType),
		IsActive:   true,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "classroom number already exists in this building")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return room, nil
}
