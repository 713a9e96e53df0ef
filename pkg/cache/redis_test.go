package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/unitime-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, DB: 2, PoolSize: 4})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)
	assert.Equal(t, 500*time.Millisecond, opts.ReadTimeout)

	opts = Options(config.RedisConfig{Host: "::1", Port: 6379, OpTimeout: time.Second})
	assert.Equal(t, "[::1]:6379", opts.Addr)
	assert.Equal(t, time.Second, opts.WriteTimeout)
}
