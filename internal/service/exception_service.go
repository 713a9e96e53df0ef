package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	"github.com/noah-isme/unitime-api/internal/repository"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type exceptionRepository interface {
	ExistsForDate(ctx context.Context, slotID string, date time.Time) (bool, error)
	Create(ctx context.Context, exception *models.ScheduleException) error
	ListBySlot(ctx context.Context, slotID string) ([]models.ScheduleException, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleException, error)
	Delete(ctx context.Context, id string) error
}

type exceptionSlotReader interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
}

type exceptionClassroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

// ExceptionService records one-off deviations. The recurring slot is never modified.
type ExceptionService struct {
	repo       exceptionRepository
	slots      exceptionSlotReader
	classrooms exceptionClassroomReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewExceptionService constructs the exception service.
func NewExceptionService(repo exceptionRepository, slots exceptionSlotReader, classrooms exceptionClassroomReader, validate *validator.Validate, logger *zap.Logger) *ExceptionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExceptionService{repo: repo, slots: slots, classrooms: classrooms, validator: validate, logger: logger}
}

// Record stores a cancellation or reschedule for one date of a slot.
func (s *ExceptionService) Record(ctx context.Context, slotID string, req dto.CreateExceptionRequest) (*models.ScheduleException, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exception payload")
	}

	if _, err := s.slots.FindByID(ctx, slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}

	date, err := time.Parse("2006-01-02", req.ExceptionDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid exception_date")
	}

	exception := &models.ScheduleException{
		ScheduleSlotID: slotID,
		ExceptionType:  models.ExceptionType(req.ExceptionType),
		ExceptionDate:  date,
		Reason:         strings.TrimSpace(req.Reason),
	}

	if exception.ExceptionType == models.ExceptionReschedule {
		if err := s.applyReschedule(ctx, exception, req); err != nil {
			return nil, err
		}
	}

	exists, err := s.repo.ExistsForDate(ctx, slotID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing exceptions")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateException, "an exception already exists for this slot and date")
	}

	if err := s.repo.Create(ctx, exception); err != nil {
		if errors.Is(err, repository.ErrDuplicateException) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateException, "an exception already exists for this slot and date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record exception")
	}

	s.logger.Info("schedule exception recorded",
		zap.String("slot_id", slotID),
		zap.String("type", string(exception.ExceptionType)),
		zap.Time("date", date),
	)
	return exception, nil
}

func (s *ExceptionService) applyReschedule(ctx context.Context, exception *models.ScheduleException, req dto.CreateExceptionRequest) error {
	hasDate := req.NewDate != nil && *req.NewDate != ""
	hasStart := req.NewStartTime != nil && *req.NewStartTime != ""
	hasEnd := req.NewEndTime != nil && *req.NewEndTime != ""
	hasRoom := req.NewClassroomID != nil && *req.NewClassroomID != ""
	if !hasDate && !hasStart && !hasEnd && !hasRoom {
		return appErrors.Clone(appErrors.ErrValidation, "reschedule requires a new date, time or room")
	}
	if hasStart != hasEnd {
		return appErrors.Clone(appErrors.ErrValidation, "new_start_time and new_end_time must be provided together")
	}

	if hasDate {
		newDate, err := time.Parse("2006-01-02", *req.NewDate)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid new_date")
		}
		exception.NewDate = &newDate
	}
	if hasStart {
		start, err := parseClock(*req.NewStartTime)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, "invalid new_start_time")
		}
		end, err := parseClock(*req.NewEndTime)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, "invalid new_end_time")
		}
		if !start.Before(end) {
			return appErrors.Clone(appErrors.ErrValidation, "new_start_time must be before new_end_time")
		}
		exception.NewStartTime = req.NewStartTime
		exception.NewEndTime = req.NewEndTime
	}
	if hasRoom {
		if _, err := s.classrooms.FindByID(ctx, *req.NewClassroomID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrRoomNotFound, "classroom not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
		}
		exception.NewClassroomID = req.NewClassroomID
	}
	return nil
}

// ListBySlot returns the exceptions recorded for a slot.
func (s *ExceptionService) ListBySlot(ctx context.Context, slotID string) ([]models.ScheduleException, error) {
	items, err := s.repo.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exceptions")
	}
	if items == nil {
		items = []models.ScheduleException{}
	}
	return items, nil
}

// Get loads an exception.
func (s *ExceptionService) Get(ctx context.Context, id string) (*models.ScheduleException, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exception not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exception")
	}
	return item, nil
}

// Delete removes an exception.
func (s *ExceptionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exception")
	}
	return nil
}
