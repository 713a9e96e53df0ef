package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCHEDULER_MAX_STREAM_GROUPS", "")
	t.Setenv("OCCUPANCY_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 3, cfg.Scheduler.MaxStreamGroups)
	assert.Equal(t, 13, cfg.Scheduler.DayShiftStartHour)
	assert.Equal(t, "MILITARY", cfg.Scheduler.SpecialSubjectCode)
	assert.Equal(t, 5*time.Minute, cfg.Occupancy.CacheTTL)
	assert.Equal(t, 2, cfg.Occupancy.WarmWorkers)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Redis.OpTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_MAX_STREAM_GROUPS", "4")
	t.Setenv("SCHEDULER_DAY_SHIFT_START_HOUR", "14")
	t.Setenv("OCCUPANCY_CACHE_TTL", "90s")
	t.Setenv("OCCUPANCY_WARM_WORKERS", "0")
	t.Setenv("JWT_AUDIENCE", "web, mobile")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Scheduler.MaxStreamGroups)
	assert.Equal(t, 14, cfg.Scheduler.DayShiftStartHour)
	assert.Equal(t, 90*time.Second, cfg.Occupancy.CacheTTL)
	assert.Equal(t, 0, cfg.Occupancy.WarmWorkers)
	assert.Equal(t, []string{"web", "mobile"}, cfg.JWT.Audience)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
