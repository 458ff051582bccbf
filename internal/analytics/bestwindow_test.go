package analytics

import (
	"math/rand/v2"
	"testing"

	"github.com/claude/swimtrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteForceSessions enumerates every contiguous run of sessions and keeps the
// first run of the requested length with the largest sum.
func bruteForceSessions(sorted []models.Session, length int) (start int, total float64) {
	start = -1
	for i := range sorted {
		var sum float64
		for j := i; j < len(sorted); j++ {
			sum += sorted[j].DistanceM
			if j-i+1 == length && (start < 0 || sum > total) {
				start, total = i, sum
			}
		}
	}
	return start, total
}

// bruteForceDays tries every calendar start day between the first and last session.
func bruteForceDays(sorted []models.Session, length int) float64 {
	var best float64
	first := models.Day(sorted[0].Date)
	last := models.Day(sorted[len(sorted)-1].Date)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		w := models.DateWindow{Start: d, End: models.AddDays(d, length-1)}
		var sum float64
		for _, s := range sorted {
			if w.Contains(s.Date) {
				sum += s.DistanceM
			}
		}
		if sum > best {
			best = sum
		}
	}
	return best
}

func randomHistory(t *testing.T, r *rand.Rand, n int) []models.Session {
	base := day(t, "2025-01-01")
	out := make([]models.Session, n)
	for i := range out {
		out[i] = models.Session{
			Date:      base.AddDate(0, 0, r.IntN(90)),
			DistanceM: float64(r.IntN(40) * 100),
		}
	}
	return out
}

// TestFindBestWindowMatchesBruteForce compares both modes with O(n²) oracles
// for every window length from 1 to the history length.
func TestFindBestWindowMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for iter := 0; iter < 25; iter++ {
		history := randomHistory(t, r, 2+r.IntN(30))
		sorted := SortByDate(history)

		for length := 1; length <= len(history); length++ {
			got, err := FindBestWindow(history, length, ModeSessionCount)
			require.NoError(t, err)

			if len(history) <= length {
				assert.False(t, got.Found)
				continue
			}
			start, total := bruteForceSessions(sorted, length)
			require.True(t, got.Found)
			assert.InDelta(t, total, got.TotalDistanceM, 1e-9, "length %d", length)
			assert.True(t, got.Window.Start.Equal(models.Day(sorted[start].Date)), "length %d", length)

			days, err := FindBestWindow(history, length, ModeCalendarDays)
			require.NoError(t, err)
			assert.InDelta(t, bruteForceDays(sorted, length), days.TotalDistanceM, 1e-9, "days length %d", length)
		}
	}
}

// TestFindBestWindowSortsInput verifies an unsorted history gives the same answer as a sorted one.
func TestFindBestWindowSortsInput(t *testing.T) {
	sessions := []models.Session{
		session(t, "2025-01-10", 1000),
		session(t, "2025-01-01", 4000),
		session(t, "2025-01-05", 3000),
		session(t, "2025-01-02", 500),
	}
	got, err := FindBestWindow(sessions, 2, ModeSessionCount)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.InDelta(t, 4500, got.TotalDistanceM, 1e-9)
	assert.Equal(t, "2025-01-01..2025-01-02", got.Window.String())
}

// TestFindBestWindowTieGoesToEarliest verifies the earliest window wins equal totals.
func TestFindBestWindowTieGoesToEarliest(t *testing.T) {
	sessions := []models.Session{
		session(t, "2025-01-01", 1000),
		session(t, "2025-01-02", 1000),
		session(t, "2025-01-03", 1000),
		session(t, "2025-01-04", 1000),
	}
	got, err := FindBestWindow(sessions, 2, ModeSessionCount)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01..2025-01-02", got.Window.String())

	got, err = FindBestWindow(sessions, 2, ModeCalendarDays)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01..2025-01-02", got.Window.String())
}

// TestFindBestWindowShortHistory documents the not-found policy: the whole
// history is returned as the approximation.
func TestFindBestWindowShortHistory(t *testing.T) {
	sessions := []models.Session{
		session(t, "2025-01-03", 1200),
		session(t, "2025-01-01", 800),
	}
	got, err := FindBestWindow(sessions, 7, ModeSessionCount)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.InDelta(t, 2000, got.TotalDistanceM, 1e-9)
	assert.Equal(t, 2, got.Sessions)
	assert.Equal(t, "2025-01-01..2025-01-03", got.Window.String())

	got, err = FindBestWindow(nil, 7, ModeSessionCount)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Zero(t, got.TotalDistanceM)
}

// TestFindBestWindowSparseHistory shows the difference between the two modes:
// seven sessions spread over months form one "7-session" window but no
// 7-day window holds more than a single session.
func TestFindBestWindowSparseHistory(t *testing.T) {
	var sessions []models.Session
	for i, d := range []string{"2025-01-01", "2025-01-15", "2025-02-01", "2025-02-15", "2025-03-01", "2025-03-15", "2025-04-01", "2025-04-15"} {
		sessions = append(sessions, session(t, d, float64(1000+i*100)))
	}

	bySessions, err := FindBestWindow(sessions, 7, ModeSessionCount)
	require.NoError(t, err)
	assert.Greater(t, bySessions.Window.Days(), 7)

	byDays, err := FindBestWindow(sessions, 7, ModeCalendarDays)
	require.NoError(t, err)
	assert.Equal(t, 7, byDays.Window.Days())
	assert.Equal(t, 1, byDays.Sessions)
	assert.InDelta(t, 1700, byDays.TotalDistanceM, 1e-9)
}

// TestFindBestWindowInvalid verifies bad lengths and modes are rejected.
func TestFindBestWindowInvalid(t *testing.T) {
	_, err := FindBestWindow(nil, 0, ModeSessionCount)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = FindBestWindow(nil, 3, WindowMode("weeks"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseWindowMode("weeks")
	require.ErrorIs(t, err, ErrInvalidArgument)

	m, err := ParseWindowMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSessionCount, m)
}
