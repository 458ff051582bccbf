package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a single logged swim workout. Analytics only read sessions.
type Session struct {
	ID          uuid.UUID        `json:"id"`
	UserID      int              `json:"-"`
	Date        time.Time        `json:"date"`
	DistanceM   float64          `json:"distance_m"`
	DurationMin *float64         `json:"duration_min,omitempty"`
	RPE         *int             `json:"rpe,omitempty"`
	Zones       map[Zone]float64 `json:"zones,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// ZoneDistance returns the distance logged in z, 0 when the zone is missing.
func (s Session) ZoneDistance(z Zone) float64 {
	return s.Zones[z]
}
