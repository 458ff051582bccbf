package analytics

import (
	"testing"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDay(s)
	require.NoError(t, err)
	return d
}

func window(t *testing.T, start, end string) models.DateWindow {
	t.Helper()
	w, err := models.NewDateWindow(day(t, start), day(t, end))
	require.NoError(t, err)
	return w
}

func session(t *testing.T, date string, distance float64) models.Session {
	t.Helper()
	return models.Session{ID: uuid.New(), Date: day(t, date), DistanceM: distance}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
