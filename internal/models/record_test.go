package models

import (
	"errors"
	"testing"
)

// TestSessionRecordConvert verifies a valid record converts with zones keyed
// by canonical name and a generated ID.
func TestSessionRecordConvert(t *testing.T) {
	rpe := 6
	r := SessionRecord{
		Date:      "2025-01-06",
		DistanceM: 3000,
		RPE:       &rpe,
		Zones:     map[string]float64{"z1": 1000, "Z3": 2000},
	}
	s, err := r.Session()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("ID not generated")
	}
	if s.ZoneDistance(Z3) != 2000 || s.ZoneDistance(Z2) != 0 {
		t.Errorf("zones = %v, want z1=1000 z3=2000", s.Zones)
	}
	if got := s.Record().Date; got != "2025-01-06" {
		t.Errorf("Record().Date = %q, want 2025-01-06", got)
	}
}

// TestSessionRecordInvalid verifies each validation rule.
func TestSessionRecordInvalid(t *testing.T) {
	bad := 11
	neg := -1.0
	tests := []struct {
		name string
		r    SessionRecord
	}{
		{"bad date", SessionRecord{Date: "06.01.2025"}},
		{"negative distance", SessionRecord{Date: "2025-01-06", DistanceM: -5}},
		{"negative duration", SessionRecord{Date: "2025-01-06", DurationMin: &neg}},
		{"rpe out of range", SessionRecord{Date: "2025-01-06", RPE: &bad}},
		{"unknown zone", SessionRecord{Date: "2025-01-06", Zones: map[string]float64{"z6": 1}}},
		{"negative zone", SessionRecord{Date: "2025-01-06", Zones: map[string]float64{"z2": -1}}},
		{"bad id", SessionRecord{ID: "nope", Date: "2025-01-06"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.r.Session(); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("err = %v, want ErrInvalidSession", err)
			}
		})
	}
}
