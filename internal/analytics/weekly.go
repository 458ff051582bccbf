package analytics

import (
	"github.com/claude/swimtrack/internal/models"
)

// WeekTotal is the training volume of one Monday-based week.
type WeekTotal struct {
	WeekStart      string    `json:"week_start"`
	Sessions       int       `json:"sessions"`
	TotalDistanceM float64   `json:"total_distance_m"`
	TotalDuration  float64   `json:"total_duration_min"`
	ChangePct      float64   `json:"change_pct"`
	Direction      Direction `json:"direction"`
}

// WeeklyTotals buckets the sessions inside window by week, oldest first. Every
// week touched by the window is reported, including empty ones, and each week
// carries its distance change against the week before it.
func WeeklyTotals(sessions []models.Session, window models.DateWindow) ([]WeekTotal, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	first := models.WeekStart(window.Start)
	last := models.WeekStart(window.End)
	index := make(map[string]int)
	var weeks []WeekTotal
	for d := first; !d.After(last); d = d.AddDate(0, 0, 7) {
		key := d.Format(models.DateLayout)
		index[key] = len(weeks)
		weeks = append(weeks, WeekTotal{WeekStart: key})
	}

	for _, s := range sessions {
		if !window.Contains(s.Date) {
			continue
		}
		w := &weeks[index[models.WeekStart(s.Date).Format(models.DateLayout)]]
		w.Sessions++
		w.TotalDistanceM += s.DistanceM
		if s.DurationMin != nil {
			w.TotalDuration += *s.DurationMin
		}
	}

	for i := range weeks {
		if i == 0 {
			weeks[i].Direction = Flat
			continue
		}
		weeks[i].ChangePct = PercentChange(weeks[i].TotalDistanceM, weeks[i-1].TotalDistanceM)
		weeks[i].Direction = Classify(weeks[i].ChangePct)
	}
	return weeks, nil
}
