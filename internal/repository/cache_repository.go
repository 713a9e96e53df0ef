package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

const (
	occupancyKeyPrefix = "occupancy"
	activeSemesterKey  = "active"
)

// OccupancyKey builds the cache key for one (semester, day, institute) index.
func OccupancyKey(semesterID string, day int, instituteID string) string {
	if semesterID == "" {
		semesterID = activeSemesterKey
	}
	if instituteID == "" {
		instituteID = "all"
	}
	return fmt.Sprintf("%s:%s:%d:%s", occupancyKeyPrefix, semesterID, day, instituteID)
}

// OccupancyCacheRepository stores occupancy indexes in Redis.
type OccupancyCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewOccupancyCacheRepository constructs the cache repository. A nil client disables it.
func NewOccupancyCacheRepository(client *redis.Client, logger *zap.Logger) *OccupancyCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccupancyCacheRepository{client: client, logger: logger}
}

// Get returns a cached index or ErrCacheMiss.
func (r *OccupancyCacheRepository) Get(ctx context.Context, semesterID string, day int, instituteID string) (*models.OccupancyIndex, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := OccupancyKey(semesterID, day, instituteID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var index models.OccupancyIndex
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("unmarshal occupancy %s: %w", key, err)
	}
	return &index, nil
}

// Set stores an index with the given TTL.
func (r *OccupancyCacheRepository) Set(ctx context.Context, instituteID string, index *models.OccupancyIndex, ttl time.Duration) error {
	if r.client == nil || index == nil {
		return nil
	}

	key := OccupancyKey(index.SemesterID, index.DayOfWeek, instituteID)
	payload, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal occupancy %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// InvalidateDay drops every institute view of one semester day, including the active-semesters view.
func (r *OccupancyCacheRepository) InvalidateDay(ctx context.Context, semesterID string, day int) error {
	if err := r.deleteByPattern(ctx, fmt.Sprintf("%s:%s:%d:*", occupancyKeyPrefix, semesterID, day)); err != nil {
		return err
	}
	return r.deleteByPattern(ctx, fmt.Sprintf("%s:%s:%d:*", occupancyKeyPrefix, activeSemesterKey, day))
}

// InvalidateSemester drops every cached day of a semester and the active-semesters views.
func (r *OccupancyCacheRepository) InvalidateSemester(ctx context.Context, semesterID string) error {
	if err := r.deleteByPattern(ctx, fmt.Sprintf("%s:%s:*", occupancyKeyPrefix, semesterID)); err != nil {
		return err
	}
	return r.deleteByPattern(ctx, fmt.Sprintf("%s:%s:*", occupancyKeyPrefix, activeSemesterKey))
}

func (r *OccupancyCacheRepository) deleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", pattern, err)
	}
	r.logger.Debug("occupancy cache invalidated", zap.String("pattern", pattern), zap.Int("keys", len(keys)))
	return nil
}
