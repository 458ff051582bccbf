package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidSession is returned when a session record fails validation.
var ErrInvalidSession = errors.New("invalid session")

// SessionRecord is how sessions travel over the API and sit in log files:
// a YYYY-MM-DD date and zones keyed by name.
type SessionRecord struct {
	ID          string             `json:"id,omitempty" yaml:"id,omitempty"`
	Date        string             `json:"date" yaml:"date"`
	DistanceM   float64            `json:"distance_m" yaml:"distance_m"`
	DurationMin *float64           `json:"duration_min,omitempty" yaml:"duration_min,omitempty"`
	RPE         *int               `json:"rpe,omitempty" yaml:"rpe,omitempty"`
	Zones       map[string]float64 `json:"zones,omitempty" yaml:"zones,omitempty"`
	Notes       string             `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Session validates the record and converts it. A missing ID gets a new one.
func (r SessionRecord) Session() (Session, error) {
	d, err := ParseDay(strings.TrimSpace(r.Date))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if r.DistanceM < 0 {
		return Session{}, fmt.Errorf("%w: distance_m must not be negative", ErrInvalidSession)
	}
	if r.DurationMin != nil && *r.DurationMin < 0 {
		return Session{}, fmt.Errorf("%w: duration_min must not be negative", ErrInvalidSession)
	}
	if r.RPE != nil && (*r.RPE < 1 || *r.RPE > 10) {
		return Session{}, fmt.Errorf("%w: rpe must be between 1 and 10", ErrInvalidSession)
	}

	s := Session{
		Date:        d,
		DistanceM:   r.DistanceM,
		DurationMin: r.DurationMin,
		RPE:         r.RPE,
		Notes:       r.Notes,
	}
	if r.ID == "" {
		s.ID = uuid.New()
	} else if s.ID, err = uuid.Parse(r.ID); err != nil {
		return Session{}, fmt.Errorf("%w: id: %v", ErrInvalidSession, err)
	}

	for name, v := range r.Zones {
		z, ok := ParseZone(name)
		if !ok {
			return Session{}, fmt.Errorf("%w: unknown zone %q", ErrInvalidSession, name)
		}
		if v < 0 {
			return Session{}, fmt.Errorf("%w: zone %s distance must not be negative", ErrInvalidSession, z)
		}
		if s.Zones == nil {
			s.Zones = make(map[Zone]float64, len(r.Zones))
		}
		s.Zones[z] += v
	}
	return s, nil
}

// Record converts a session back to its wire form.
func (s Session) Record() SessionRecord {
	r := SessionRecord{
		ID:          s.ID.String(),
		Date:        Day(s.Date).Format(DateLayout),
		DistanceM:   s.DistanceM,
		DurationMin: s.DurationMin,
		RPE:         s.RPE,
		Notes:       s.Notes,
	}
	for z, v := range s.Zones {
		if r.Zones == nil {
			r.Zones = make(map[string]float64, len(s.Zones))
		}
		r.Zones[string(z)] = v
	}
	return r
}
