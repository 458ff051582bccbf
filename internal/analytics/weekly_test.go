package analytics

import (
	"testing"

	"github.com/claude/swimtrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWeeklyTotals verifies Monday buckets, empty weeks and week-over-week change.
func TestWeeklyTotals(t *testing.T) {
	sessions := []models.Session{
		session(t, "2025-01-06", 2000), // Monday
		session(t, "2025-01-12", 1000), // Sunday, same week
		session(t, "2025-01-27", 1500),
	}
	weeks, err := WeeklyTotals(sessions, window(t, "2025-01-06", "2025-02-02"))
	require.NoError(t, err)
	require.Len(t, weeks, 4)

	assert.Equal(t, "2025-01-06", weeks[0].WeekStart)
	assert.Equal(t, 2, weeks[0].Sessions)
	assert.InDelta(t, 3000, weeks[0].TotalDistanceM, 1e-9)
	assert.Equal(t, Flat, weeks[0].Direction)

	assert.Zero(t, weeks[1].Sessions)
	assert.InDelta(t, -100, weeks[1].ChangePct, 1e-9)

	assert.Zero(t, weeks[2].TotalDistanceM)
	assert.Equal(t, Flat, weeks[2].Direction)

	assert.InDelta(t, 100, weeks[3].ChangePct, 1e-9)
	assert.Equal(t, Increase, weeks[3].Direction)
}
