package analytics

import (
	"fmt"

	"github.com/claude/swimtrack/internal/models"
)

// ZoneLoad is one zone's share of the zone-tagged distance.
type ZoneLoad struct {
	Zone      models.Zone `json:"zone"`
	DistanceM float64     `json:"distance_m"`
	Pct       float64     `json:"pct"`
}

// ZoneLoadResult holds totals, averages and the zone distribution for a window.
type ZoneLoadResult struct {
	Window         models.DateWindow `json:"window"`
	Sessions       int               `json:"sessions"`
	TotalDistanceM float64           `json:"total_distance_m"`
	TotalDuration  float64           `json:"total_duration_min"`
	TotalRPE       int               `json:"total_rpe"`
	RatedSessions  int               `json:"rated_sessions"`
	AvgDistanceM   float64           `json:"avg_distance_m"`
	AvgDuration    float64           `json:"avg_duration_min"`
	AvgRPE         float64           `json:"avg_rpe"`
	ZoneDistanceM  float64           `json:"zone_distance_m"`
	Zones          []ZoneLoad        `json:"zones"`
}

// Zone returns the load entry for z.
func (r ZoneLoadResult) Zone(z models.Zone) ZoneLoad {
	for _, zl := range r.Zones {
		if zl.Zone == z {
			return zl
		}
	}
	return ZoneLoad{Zone: z}
}

// Aggregate reduces the sessions that fall inside window (both ends inclusive).
// Averages divide by the session count, missing durations and RPEs counting as
// zero, and are zero for an empty selection. Zone percentages are taken over the
// zone-tagged distance so that they sum to 100 whenever any zone data exists.
func Aggregate(sessions []models.Session, window models.DateWindow) (ZoneLoadResult, error) {
	if err := window.Validate(); err != nil {
		return ZoneLoadResult{}, err
	}

	res := ZoneLoadResult{Window: window}
	var zoneTotals [len(models.Zones)]float64

	for _, s := range sessions {
		if !window.Contains(s.Date) {
			continue
		}
		res.Sessions++
		res.TotalDistanceM += s.DistanceM
		if s.DurationMin != nil {
			res.TotalDuration += *s.DurationMin
		}
		if s.RPE != nil {
			res.TotalRPE += *s.RPE
			res.RatedSessions++
		}
		for i, z := range models.Zones {
			zoneTotals[i] += s.ZoneDistance(z)
		}
	}

	res.AvgDistanceM = ratio(res.TotalDistanceM, res.Sessions)
	res.AvgDuration = ratio(res.TotalDuration, res.Sessions)
	res.AvgRPE = ratio(float64(res.TotalRPE), res.Sessions)

	for _, v := range zoneTotals {
		res.ZoneDistanceM += v
	}
	res.Zones = make([]ZoneLoad, len(models.Zones))
	for i, z := range models.Zones {
		res.Zones[i] = ZoneLoad{Zone: z, DistanceM: zoneTotals[i]}
		if res.ZoneDistanceM > 0 {
			res.Zones[i].Pct = zoneTotals[i] / res.ZoneDistanceM * 100
		}
	}

	return res, nil
}

// AggregatePhase aggregates the sessions that fall inside a dated phase.
func AggregatePhase(sessions []models.Session, phase models.TrainingPhase) (ZoneLoadResult, error) {
	w, ok := phase.Window()
	if !ok {
		return ZoneLoadResult{}, fmt.Errorf("%w: phase %q has no dates", ErrInvalidArgument, phase.Name)
	}
	return Aggregate(sessions, w)
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
