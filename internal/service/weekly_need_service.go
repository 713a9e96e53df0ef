package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type weeklyNeedGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindInstitute(ctx context.Context, id string) (*models.Institute, error)
}

type weeklyNeedSubjectReader interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.Subject, error)
}

type scheduledCounter interface {
	CountByGroup(ctx context.Context, groupID, semesterID string) (map[string]map[models.LessonType]int, error)
}

// WeeklyNeedService reports how many sessions per week each subject of a group still needs.
type WeeklyNeedService struct {
	groups    weeklyNeedGroupReader
	subjects  weeklyNeedSubjectReader
	semesters semesterResolver
	counter   scheduledCounter
	logger    *zap.Logger
}

// NewWeeklyNeedService constructs the calculator service.
func NewWeeklyNeedService(groups weeklyNeedGroupReader, subjects weeklyNeedSubjectReader, semesters semesterResolver, counter scheduledCounter, logger *zap.Logger) *WeeklyNeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyNeedService{groups: groups, subjects: subjects, semesters: semesters, counter: counter, logger: logger}
}

// PairsFor returns ceil(hours * pair / academic_hour) in integer arithmetic.
func PairsFor(hours int, ratio models.HourRatio) int {
	if hours <= 0 {
		return 0
	}
	if !ratio.Valid() {
		ratio = models.UnitRatio
	}
	return (hours*ratio.PairMinutes + ratio.HourMinutes - 1) / ratio.HourMinutes
}

// WeeklyNeed returns ceil(pairs/weeks). A non-positive week count yields the whole pair count.
func WeeklyNeed(hours int, ratio models.HourRatio, weeks int) int {
	pairs := PairsFor(hours, ratio)
	if weeks <= 0 {
		return pairs
	}
	return (pairs + weeks - 1) / weeks
}

// WeeklyNeeds lists every subject and lesson type with hours attached to the group, with remaining weekly sessions.
func (s *WeeklyNeedService) WeeklyNeeds(ctx context.Context, groupID, semesterID string) ([]models.WeeklyNeed, error) {
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

	subjects, err := s.subjects.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group subjects")
	}

	scheduled, err := s.counter.CountByGroup(ctx, group.ID, semester.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scheduled slots")
	}

	ratios := make(map[string]models.HourRatio)
	needs := make([]models.WeeklyNeed, 0, len(subjects)*len(models.LessonTypes))
	for _, subject := range subjects {
		instituteID := group.InstituteID
		if subject.InstituteID != nil && *subject.InstituteID != "" {
			instituteID = *subject.InstituteID
		}
		ratio, ok := ratios[instituteID]
		if !ok {
			ratio = s.pairRatio(ctx, instituteID)
			ratios[instituteID] = ratio
		}

		for _, lessonType := range models.LessonTypes {
			hours := subject.HoursFor(lessonType)
			if hours <= 0 {
				continue
			}
			needed := WeeklyNeed(hours, ratio, subject.SemesterWeeks)
			done := scheduled[subject.ID][lessonType]
			remaining := needed - done
			if remaining < 0 {
				remaining = 0
			}
			needs = append(needs, models.WeeklyNeed{
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				LessonType:  lessonType,
				Hours:       hours,
				Pairs:       PairsFor(hours, ratio),
				Needed:      needed,
				Scheduled:   done,
				Remaining:   remaining,
			})
		}
	}
	return needs, nil
}

func (s *WeeklyNeedService) pairRatio(ctx context.Context, instituteID string) models.HourRatio {
	if instituteID == "" {
		return models.UnitRatio
	}
	institute, err := s.groups.FindInstitute(ctx, instituteID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load institute hour constants", zap.String("institute_id", instituteID), zap.Error(err))
		}
		return models.UnitRatio
	}
	return institute.HourRatio()
}
