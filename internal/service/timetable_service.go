package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type groupSlotLister interface {
	ListByGroup(ctx context.Context, groupID, semesterID string) ([]models.ScheduleSlot, error)
}

type timetableGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// GroupTimetable is a group's weekly grid for one semester.
type GroupTimetable struct {
	GroupID  string                `json:"group_id"`
	Semester *models.Semester      `json:"semester"`
	Slots    []models.ScheduleSlot `json:"slots"`
}

// TimetableService serves read-only timetable views.
type TimetableService struct {
	slots     groupSlotLister
	groups    timetableGroupReader
	semesters semesterResolver
	logger    *zap.Logger
}

func NewTimetableService(slots groupSlotLister, groups timetableGroupReader, semesters semesterResolver, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{slots: slots, groups: groups, semesters: semesters, logger: logger}
}

// ForGroup lists the active slots of a group ordered by day and time.
func (s *TimetableService) ForGroup(ctx context.Context, groupID, semesterID string) (*GroupTimetable, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	semester, err := resolveSemester(ctx, s.semesters, semesterID, group)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.ListByGroup(ctx, group.ID, semester.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group slots")
	}
	if slots == nil {
		slots = []models.ScheduleSlot{}
	}
	return &GroupTimetable{GroupID: group.ID, Semester: semester, Slots: slots}, nil
}
