package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/dto"
	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type timeSlotRepository interface {
	ListForInstitute(ctx context.Context, instituteID string, shift models.Shift) ([]models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
}

// TimeGridService manages per-institute time grids.
type TimeGridService struct {
	repo         timeSlotRepository
	validator    *validator.Validate
	logger       *zap.Logger
	dayStartHour int
}

// NewTimeGridService constructs the service.
func NewTimeGridService(repo timeSlotRepository, validate *validator.Validate, logger *zap.Logger, dayStartHour int) *TimeGridService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dayStartHour <= 0 {
		dayStartHour = 13
	}
	return &TimeGridService{repo: repo, validator: validate, logger: logger, dayStartHour: dayStartHour}
}

// List returns the grid of an institute for a shift, falling back to the global grid.
func (s *TimeGridService) List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, error) {
	shift := filter.Shift
	if shift == "" {
		shift = models.ShiftMorning
	}
	if !shift.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown shift")
	}
	slots, err := s.repo.ListForInstitute(ctx, filter.InstituteID, shift)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	return slots, nil
}

// Create adds a time slot. The declared shift must agree with the start hour unless it is evening.
func (s *TimeGridService) Create(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}

	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, "invalid start_time")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedTime.Code, appErrors.ErrMalformedTime.Status, "invalid end_time")
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	slot := &models.TimeSlot{
		Shift:           models.Shift(req.Shift),
		Number:          req.Number,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: int(end.Sub(start).Minutes()),
	}
	if req.InstituteID != "" {
		instituteID := req.InstituteID
		slot.InstituteID = &instituteID
	}

	shift, err := EffectiveShift(slot, s.dayStartHour)
	if err != nil {
		return nil, err
	}
	if shift != slot.Shift {
		return nil, appErrors.Clone(appErrors.ErrShiftMismatch, fmt.Sprintf("start time %s belongs to the %s shift", req.StartTime, shift))
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a time slot with this start time already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time slot")
	}
	return slot, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
