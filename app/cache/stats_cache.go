package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"postline/app/schedule"
)

const statsKey = "postline:stats"

// StatsCache keeps the aggregated stats document in Redis so dashboard
// polling does not hit the database on every request.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache connects to Redis and verifies the connection.
func NewStatsCache(addr string, ttl time.Duration) (*StatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &StatsCache{client: client, ttl: ttl}, nil
}

// Get returns the cached stats document, or ok=false on miss or any cache
// error so callers fall through to the database.
func (c *StatsCache) Get(ctx context.Context) (*schedule.Stats, bool) {
	data, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		return nil, false
	}

	var stats schedule.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		_ = c.client.Del(ctx, statsKey).Err()
		return nil, false
	}
	return &stats, true
}

func (c *StatsCache) Set(ctx context.Context, stats *schedule.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stats: %w", err)
	}
	return nil
}

// Invalidate drops the cached document after any store write.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}

func (c *StatsCache) Healthy(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *StatsCache) Close() error {
	return c.client.Close()
}
