package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Week    float64 `json:"week"`
	Current string  `json:"current"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl), mr
}

func TestDashboardRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	var got snapshot
	hit, err := c.GetDashboard(ctx, 1, "2025-02-10", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetDashboard(ctx, 1, "2025-02-10", snapshot{Week: 12000, Current: "Build"}))

	hit, err = c.GetDashboard(ctx, 1, "2025-02-10", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, snapshot{Week: 12000, Current: "Build"}, got)
}

func TestDashboardExpires(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.SetDashboard(ctx, 1, "today", snapshot{Week: 1}))
	mr.FastForward(31 * time.Second)

	var got snapshot
	hit, err := c.GetDashboard(ctx, 1, "today", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

// TestInvalidateUser verifies only the given user's entries are dropped.
func TestInvalidateUser(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetDashboard(ctx, 1, "a", snapshot{Week: 1}))
	require.NoError(t, c.SetDashboard(ctx, 1, "b", snapshot{Week: 2}))
	require.NoError(t, c.SetDashboard(ctx, 12, "a", snapshot{Week: 3}))

	require.NoError(t, c.InvalidateUser(ctx, 1))

	assert.False(t, mr.Exists(dashboardKey(1, "a")))
	assert.False(t, mr.Exists(dashboardKey(1, "b")))
	assert.True(t, mr.Exists(dashboardKey(12, "a")))

	require.NoError(t, c.InvalidateUser(ctx, 99))
}

func TestCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(dashboardKey(1, "x"), "{not json"))

	var got snapshot
	_, err := c.GetDashboard(context.Background(), 1, "x", &got)
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, c.Ping(context.Background()))
	mr.SetError("LOADING")
	require.Error(t, c.Ping(context.Background()))
}
