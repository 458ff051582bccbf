package analytics

import (
	"fmt"
	"slices"

	"github.com/claude/swimtrack/internal/models"
)

// WindowMode selects how BestWindow measures the window length.
type WindowMode string

const (
	// ModeSessionCount slides over N consecutive sessions regardless of the
	// calendar span they cover. This is the historical behavior.
	ModeSessionCount WindowMode = "sessions"
	// ModeCalendarDays slides over N calendar days.
	ModeCalendarDays WindowMode = "days"
)

// ParseWindowMode accepts "sessions", "days" or "" (session count).
func ParseWindowMode(s string) (WindowMode, error) {
	switch WindowMode(s) {
	case "", ModeSessionCount:
		return ModeSessionCount, nil
	case ModeCalendarDays:
		return ModeCalendarDays, nil
	}
	return "", fmt.Errorf("%w: window mode %q", ErrInvalidArgument, s)
}

// BestWindow is the highest-distance window found by FindBestWindow.
// Found is false when no full window fits; Window then spans the whole
// history and TotalDistanceM is its total.
type BestWindow struct {
	Mode           WindowMode        `json:"mode"`
	Length         int               `json:"length"`
	Found          bool              `json:"found"`
	Window         models.DateWindow `json:"window"`
	TotalDistanceM float64           `json:"total_distance_m"`
	Sessions       int               `json:"sessions"`
}

// FindBestWindow finds the window of the given length with the largest total
// distance. Input order does not matter. Ties go to the earliest window.
func FindBestWindow(sessions []models.Session, length int, mode WindowMode) (BestWindow, error) {
	if length <= 0 {
		return BestWindow{}, fmt.Errorf("%w: window length must be positive, got %d", ErrInvalidArgument, length)
	}
	sorted := SortByDate(sessions)

	switch mode {
	case "", ModeSessionCount:
		return bestBySessionCount(sorted, length), nil
	case ModeCalendarDays:
		return bestByCalendarDays(sorted, length), nil
	}
	return BestWindow{}, fmt.Errorf("%w: window mode %q", ErrInvalidArgument, mode)
}

// SortByDate returns a date-ordered copy; sessions on the same day keep their input order.
func SortByDate(sessions []models.Session) []models.Session {
	out := slices.Clone(sessions)
	slices.SortStableFunc(out, func(a, b models.Session) int {
		return models.Day(a.Date).Compare(models.Day(b.Date))
	})
	return out
}

func bestBySessionCount(sorted []models.Session, length int) BestWindow {
	res := BestWindow{Mode: ModeSessionCount, Length: length}
	n := len(sorted)
	if n <= length {
		return wholeHistory(res, sorted)
	}

	bestStart := -1
	var best float64
	for i := 0; i <= n-length; i++ {
		var sum float64
		for _, s := range sorted[i : i+length] {
			sum += s.DistanceM
		}
		if bestStart < 0 || sum > best {
			best, bestStart = sum, i
		}
	}

	res.Found = true
	res.TotalDistanceM = best
	res.Sessions = length
	res.Window = models.DateWindow{
		Start: models.Day(sorted[bestStart].Date),
		End:   models.Day(sorted[bestStart+length-1].Date),
	}
	return res
}

func bestByCalendarDays(sorted []models.Session, length int) BestWindow {
	res := BestWindow{Mode: ModeCalendarDays, Length: length}
	if len(sorted) == 0 {
		return wholeHistory(res, sorted)
	}

	// Two pointers over [start, start+length-1]; only windows that begin on a
	// session day can be maximal.
	var sum float64
	hi := 0
	for lo := 0; lo < len(sorted); lo++ {
		if lo > 0 && models.Day(sorted[lo].Date).Equal(models.Day(sorted[lo-1].Date)) {
			sum -= sorted[lo].DistanceM
			continue
		}
		start := models.Day(sorted[lo].Date)
		end := models.AddDays(start, length-1)
		for hi < len(sorted) && !models.Day(sorted[hi].Date).After(end) {
			sum += sorted[hi].DistanceM
			hi++
		}
		if !res.Found || sum > res.TotalDistanceM {
			res.Found = true
			res.TotalDistanceM = sum
			res.Sessions = hi - lo
			res.Window = models.DateWindow{Start: start, End: end}
		}
		sum -= sorted[lo].DistanceM
	}
	return res
}

func wholeHistory(res BestWindow, sorted []models.Session) BestWindow {
	res.Sessions = len(sorted)
	for _, s := range sorted {
		res.TotalDistanceM += s.DistanceM
	}
	if len(sorted) > 0 {
		res.Window = models.DateWindow{
			Start: models.Day(sorted[0].Date),
			End:   models.Day(sorted[len(sorted)-1].Date),
		}
	}
	return res
}
