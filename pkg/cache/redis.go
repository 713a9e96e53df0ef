package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/unitime-api/pkg/config"
)

// Options maps the Redis settings onto client options. The occupancy cache is
// optional, so reads and writes get a short timeout and fall through to
// Postgres instead of stalling a request.
func Options(cfg config.RedisConfig) *redis.Options {
	timeout := cfg.OpTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// NewRedis returns a connected client backing the occupancy cache.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := Options(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", opts.Addr, err)
	}
	return client, nil
}
