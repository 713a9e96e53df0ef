package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

type occupancyReader interface {
	Occupancy(ctx context.Context, semesterID string, day int, instituteID string) ([]models.OccupancyRow, error)
	ListRoomOccupants(ctx context.Context, exec sqlx.ExtContext, classroomID string, pos models.SlotPosition) ([]models.ScheduleSlot, error)
}

type occupancyCache interface {
	Get(ctx context.Context, semesterID string, day int, instituteID string) (*models.OccupancyIndex, error)
	Set(ctx context.Context, instituteID string, index *models.OccupancyIndex, ttl time.Duration) error
	InvalidateDay(ctx context.Context, semesterID string, day int) error
	InvalidateSemester(ctx context.Context, semesterID string) error
}

type occupancyWarmer interface {
	Enqueue(key string, req OccupancyWarmRequest) error
}

// OccupancyWarmRequest names one cached index to rebuild after invalidation.
type OccupancyWarmRequest struct {
	SemesterID string
	DayOfWeek  int
}

// OccupancyConfig controls caching of occupancy indexes.
type OccupancyConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// OccupancyService builds the room occupancy index, backed by an optional Redis cache.
type OccupancyService struct {
	repo    occupancyReader
	cache   occupancyCache
	metrics *MetricsService
	logger  *zap.Logger
	cfg     OccupancyConfig
	warmer  occupancyWarmer
}

// NewOccupancyService constructs the service. A nil cache disables caching.
func NewOccupancyService(repo occupancyReader, cache occupancyCache, metrics *MetricsService, logger *zap.Logger, cfg OccupancyConfig) *OccupancyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &OccupancyService{repo: repo, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

func (s *OccupancyService) cacheEnabled() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

// Occupancy returns classroom -> time slot number -> occupying slots for one day.
// An empty semester id covers all active semesters; an empty institute id covers every building.
func (s *OccupancyService) Occupancy(ctx context.Context, semesterID string, day int, instituteID string) (*models.OccupancyIndex, error) {
	if day < 0 || day > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be between 0 and 5")
	}

	if s.cacheEnabled() {
		start := time.Now()
		cached, err := s.cache.Get(ctx, semesterID, day, instituteID)
		hit := err == nil
		s.metrics.RecordOccupancyLookup(hit, time.Since(start))
		if hit {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("occupancy cache read failed", zap.String("semester_id", semesterID), zap.Int("day_of_week", day), zap.Error(err))
		}
	}

	start := time.Now()
	rows, err := s.repo.Occupancy(ctx, semesterID, day, instituteID)
	s.metrics.ObserveOccupancyBuild(time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy")
	}

	index := BuildOccupancyIndex(semesterID, day, rows)

	if s.cacheEnabled() {
		start := time.Now()
		if err := s.cache.Set(ctx, instituteID, index, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("occupancy cache write failed", zap.String("semester_id", semesterID), zap.Int("day_of_week", day), zap.Error(err))
		}
		s.metrics.ObserveOccupancyCacheWrite(time.Since(start))
	}
	return index, nil
}

// RoomOccupants answers who holds a classroom at one cell, in the cell's semester or any active
// semester. It reads the database directly, bypassing the cache.
func (s *OccupancyService) RoomOccupants(ctx context.Context, classroomID string, pos models.SlotPosition) ([]models.ScheduleSlot, error) {
	slots, err := s.repo.ListRoomOccupants(ctx, nil, classroomID, pos)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room occupants")
	}
	return slots, nil
}

// UseWarmer rebuilds invalidated days in the background through w.
func (s *OccupancyService) UseWarmer(w occupancyWarmer) {
	s.warmer = w
}

// InvalidateDay drops cached indexes touched by a write. Failures are logged, not returned.
func (s *OccupancyService) InvalidateDay(ctx context.Context, semesterID string, day int) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.InvalidateDay(ctx, semesterID, day); err != nil {
		s.logger.Warn("occupancy cache invalidate failed", zap.String("semester_id", semesterID), zap.Int("day_of_week", day), zap.Error(err))
		return
	}
	s.metrics.RecordOccupancyInvalidation("day")
	if s.warmer != nil {
		req := OccupancyWarmRequest{SemesterID: semesterID, DayOfWeek: day}
		if err := s.warmer.Enqueue(fmt.Sprintf("%s:%d", semesterID, day), req); err != nil {
			s.logger.Debug("occupancy warm-up skipped", zap.String("semester_id", semesterID), zap.Int("day_of_week", day), zap.Error(err))
		}
	}
}

// Warm rebuilds and caches one semester day across every building.
func (s *OccupancyService) Warm(ctx context.Context, req OccupancyWarmRequest) error {
	if !s.cacheEnabled() {
		return nil
	}
	_, err := s.Occupancy(ctx, req.SemesterID, req.DayOfWeek, "")
	s.metrics.RecordOccupancyWarmup(err)
	return err
}

// InvalidateSemester drops every cached index of a semester.
func (s *OccupancyService) InvalidateSemester(ctx context.Context, semesterID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.InvalidateSemester(ctx, semesterID); err != nil {
		s.logger.Warn("occupancy cache invalidate failed", zap.String("semester_id", semesterID), zap.Error(err))
		return
	}
	s.metrics.RecordOccupancyInvalidation("semester")
}

// BuildOccupancyIndex groups flat occupancy rows by classroom and time slot number.
func BuildOccupancyIndex(semesterID string, day int, rows []models.OccupancyRow) *models.OccupancyIndex {
	index := &models.OccupancyIndex{SemesterID: semesterID, DayOfWeek: day, Rooms: make(map[string]models.RoomOccupancy)}
	for _, row := range rows {
		room, ok := index.Rooms[row.ClassroomID]
		if !ok {
			room = models.RoomOccupancy{ClassroomID: row.ClassroomID, Room: row.ClassroomLabel, Slots: make(map[int][]models.OccupiedCell)}
		}
		room.Slots[row.TimeSlotNumber] = append(room.Slots[row.TimeSlotNumber], row.OccupiedCell)
		index.Rooms[row.ClassroomID] = room
	}
	return index
}
