// Package cache keeps computed per-user analytics in Redis so repeated
// dashboard loads skip the session scan. Entries are JSON with a TTL and are
// dropped whenever the user's sessions or macrocycle change.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const dashboardKeyPrefix = "swimtrack:dashboard:"

// Cache is a Redis-backed store for dashboard results.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps client. ttl applies to every entry written.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// GetDashboard decodes the cached entry for (userID, variant) into dst.
// It reports false on a cache miss.
func (c *Cache) GetDashboard(ctx context.Context, userID int, variant string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, dashboardKey(userID, variant)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("reading cached dashboard: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decoding cached dashboard: %w", err)
	}
	return true, nil
}

// SetDashboard stores v for (userID, variant).
func (c *Cache) SetDashboard(ctx context.Context, userID int, variant string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding dashboard: %w", err)
	}
	if err := c.client.Set(ctx, dashboardKey(userID, variant), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching dashboard: %w", err)
	}
	return nil
}

// InvalidateUser drops every cached dashboard of userID.
func (c *Cache) InvalidateUser(ctx context.Context, userID int) error {
	pattern := dashboardKeyPrefix + strconv.Itoa(userID) + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning dashboard keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating dashboards: %w", err)
	}
	return nil
}

func dashboardKey(userID int, variant string) string {
	return dashboardKeyPrefix + strconv.Itoa(userID) + ":" + variant
}
