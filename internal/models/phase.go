package models

import (
	"time"

	"github.com/google/uuid"
)

// TrainingPhase is one mesocycle of a macrocycle. EndDate is derived from
// StartDate and DurationWeeks and is never set directly by callers.
type TrainingPhase struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	DurationWeeks int        `json:"duration_weeks"`
	Order         int        `json:"order"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Intensity     int        `json:"intensity"`
	WeeklyVolumeM float64    `json:"weekly_volume_m"`
	Focus         []string   `json:"focus,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Window returns the phase's date window, false when the phase is not dated yet.
func (p TrainingPhase) Window() (DateWindow, bool) {
	if p.StartDate == nil || p.EndDate == nil {
		return DateWindow{}, false
	}
	return DateWindow{Start: *p.StartDate, End: *p.EndDate}, true
}

// Clone returns a deep copy so callers cannot alias dates or focus tags.
func (p TrainingPhase) Clone() TrainingPhase {
	c := p
	if p.StartDate != nil {
		s := *p.StartDate
		c.StartDate = &s
	}
	if p.EndDate != nil {
		e := *p.EndDate
		c.EndDate = &e
	}
	if p.Focus != nil {
		c.Focus = append([]string(nil), p.Focus...)
	}
	return c
}

// PhaseStatus is derived from the phase dates and the current day; it is never stored.
type PhaseStatus string

const (
	PhaseDraft     PhaseStatus = "draft"
	PhaseScheduled PhaseStatus = "scheduled"
	PhaseActive    PhaseStatus = "active"
	PhaseCompleted PhaseStatus = "completed"
)

// StatusAt derives the phase status on the given day.
func (p TrainingPhase) StatusAt(now time.Time) PhaseStatus {
	w, ok := p.Window()
	if !ok {
		return PhaseDraft
	}
	today := Day(now)
	switch {
	case today.Before(Day(w.Start)):
		return PhaseScheduled
	case today.After(Day(w.End)):
		return PhaseCompleted
	default:
		return PhaseActive
	}
}
