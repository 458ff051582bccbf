package analytics

import (
	"fmt"
	"strings"

	"github.com/claude/swimtrack/internal/models"
)

// Direction classifies a percentage change.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
	Flat     Direction = "flat"
)

// PercentChange is the single comparison used for every period-over-period figure.
// Growth from a zero baseline is capped at 100 rather than reported as infinity.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// Classify maps a percentage change to its direction.
func Classify(pct float64) Direction {
	switch {
	case pct > 0:
		return Increase
	case pct < 0:
		return Decrease
	default:
		return Flat
	}
}

// Metric names accepted by CompareWindows. Zone percentages use "zone:z1".."zone:z5".
const (
	MetricDistance    = "distance"
	MetricSessions    = "sessions"
	MetricDuration    = "duration"
	MetricAvgRPE      = "avg_rpe"
	MetricAvgDistance = "avg_distance"
	zoneMetricPrefix  = "zone:"
)

// Metrics lists the scalar metric names, excluding the zone:<id> family.
var Metrics = []string{MetricDistance, MetricSessions, MetricDuration, MetricAvgRPE, MetricAvgDistance}

// Comparison is the result of comparing one metric across two windows.
// A is the current window and B the baseline.
type Comparison struct {
	Metric    string            `json:"metric"`
	WindowA   models.DateWindow `json:"window_a"`
	WindowB   models.DateWindow `json:"window_b"`
	A         float64           `json:"a"`
	B         float64           `json:"b"`
	ChangePct float64           `json:"change_pct"`
	Direction Direction         `json:"direction"`
}

// MetricValue extracts a named metric from an aggregation.
func MetricValue(r ZoneLoadResult, metric string) (float64, error) {
	switch metric {
	case MetricDistance:
		return r.TotalDistanceM, nil
	case MetricSessions:
		return float64(r.Sessions), nil
	case MetricDuration:
		return r.TotalDuration, nil
	case MetricAvgRPE:
		return r.AvgRPE, nil
	case MetricAvgDistance:
		return r.AvgDistanceM, nil
	}
	if id, ok := strings.CutPrefix(metric, zoneMetricPrefix); ok {
		if z, ok := models.ParseZone(id); ok {
			return r.Zone(z).Pct, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
}

// CompareWindows aggregates both windows and compares metric between them.
func CompareWindows(sessions []models.Session, a, b models.DateWindow, metric string) (Comparison, error) {
	ra, err := Aggregate(sessions, a)
	if err != nil {
		return Comparison{}, fmt.Errorf("window a: %w", err)
	}
	rb, err := Aggregate(sessions, b)
	if err != nil {
		return Comparison{}, fmt.Errorf("window b: %w", err)
	}
	return compareResults(ra, rb, metric)
}

func compareResults(ra, rb ZoneLoadResult, metric string) (Comparison, error) {
	va, err := MetricValue(ra, metric)
	if err != nil {
		return Comparison{}, err
	}
	vb, err := MetricValue(rb, metric)
	if err != nil {
		return Comparison{}, err
	}
	pct := PercentChange(va, vb)
	return Comparison{
		Metric:    metric,
		WindowA:   ra.Window,
		WindowB:   rb.Window,
		A:         va,
		B:         vb,
		ChangePct: pct,
		Direction: Classify(pct),
	}, nil
}

// CompareAll compares every scalar metric and every zone percentage between two windows.
func CompareAll(sessions []models.Session, a, b models.DateWindow) ([]Comparison, error) {
	ra, err := Aggregate(sessions, a)
	if err != nil {
		return nil, fmt.Errorf("window a: %w", err)
	}
	rb, err := Aggregate(sessions, b)
	if err != nil {
		return nil, fmt.Errorf("window b: %w", err)
	}

	names := append([]string(nil), Metrics...)
	for _, z := range models.Zones {
		names = append(names, zoneMetricPrefix+string(z))
	}

	out := make([]Comparison, 0, len(names))
	for _, m := range names {
		c, err := compareResults(ra, rb, m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
