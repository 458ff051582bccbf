package models

import (
	"time"

	"github.com/google/uuid"
)

// CompetitionType classifies a competition by level.
type CompetitionType string

const (
	CompetitionLocal         CompetitionType = "local"
	CompetitionRegional      CompetitionType = "regional"
	CompetitionNational      CompetitionType = "national"
	CompetitionInternational CompetitionType = "international"
	CompetitionMasters       CompetitionType = "masters"
	CompetitionTimeTrial     CompetitionType = "time_trial"
)

// Valid reports whether t is a known competition type.
func (t CompetitionType) Valid() bool {
	switch t {
	case CompetitionLocal, CompetitionRegional, CompetitionNational,
		CompetitionInternational, CompetitionMasters, CompetitionTimeTrial:
		return true
	}
	return false
}

// Priority ranks how much a competition matters to the season plan.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: high=3, medium=2, low=1, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// CompetitionStatus tracks whether a competition is still ahead.
type CompetitionStatus string

const (
	CompetitionUpcoming  CompetitionStatus = "upcoming"
	CompetitionCompleted CompetitionStatus = "completed"
	CompetitionCancelled CompetitionStatus = "cancelled"
)

// Valid reports whether s is a known competition status.
func (s CompetitionStatus) Valid() bool {
	return s == CompetitionUpcoming || s == CompetitionCompleted || s == CompetitionCancelled
}

// Competition is a dated meet. Unlike phases, its status is stored.
type Competition struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Date      time.Time         `json:"date"`
	Location  string            `json:"location,omitempty"`
	Type      CompetitionType   `json:"type"`
	Priority  Priority          `json:"priority"`
	Status    CompetitionStatus `json:"status"`
	Results   *string           `json:"results,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DaysUntil is the number of calendar days from now to the competition;
// negative once it has passed.
func (c Competition) DaysUntil(now time.Time) int {
	return int(Day(c.Date).Sub(Day(now)).Hours() / 24)
}
