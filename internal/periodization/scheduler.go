package periodization

import (
	"fmt"
	"slices"
	"time"

	"github.com/claude/swimtrack/internal/models"
)

// PhaseEnd is the last day of a phase starting on start: start + 7*weeks - 1.
func PhaseEnd(start time.Time, weeks int) time.Time {
	return models.AddDays(start, weeks*7-1)
}

// NextOrder returns one past the highest order in phases, or 1 for an empty list.
func NextOrder(phases []models.TrainingPhase) int {
	highest := 0
	for _, p := range phases {
		if p.Order > highest {
			highest = p.Order
		}
	}
	return highest + 1
}

// SortByOrder returns deep copies of phases ordered by Order.
func SortByOrder(phases []models.TrainingPhase) []models.TrainingPhase {
	out := make([]models.TrainingPhase, len(phases))
	for i, p := range phases {
		out[i] = p.Clone()
	}
	slices.SortStableFunc(out, func(a, b models.TrainingPhase) int { return a.Order - b.Order })
	return out
}

// CheckOrders rejects non-positive and duplicate orders. Gaps are allowed.
func CheckOrders(phases []models.TrainingPhase) error {
	seen := make(map[int]string, len(phases))
	for _, p := range phases {
		if p.Order <= 0 {
			return fmt.Errorf("%w: phase %q has order %d", ErrValidation, p.Name, p.Order)
		}
		if other, ok := seen[p.Order]; ok {
			return fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateOrder, p.Order, other, p.Name)
		}
		seen[p.Order] = p.Name
	}
	return nil
}

// ScheduleNew prepares a phase for insertion: it takes the next free order when
// none is given and, without an explicit start, starts the day after its dated
// predecessor. The result still has to go through Recompute.
func ScheduleNew(phases []models.TrainingPhase, p models.TrainingPhase) models.TrainingPhase {
	p = p.Clone()
	if p.Order == 0 {
		p.Order = NextOrder(phases)
	}
	if p.StartDate == nil {
		if prev, ok := predecessor(SortByOrder(phases), p.Order); ok && prev.EndDate != nil {
			start := models.AddDays(*prev.EndDate, 1)
			p.StartDate = &start
		}
	}
	p.EndDate = nil
	return p
}

// Recompute returns phases, ordered by Order, with changed merged in (replacing
// the phase with the same ID or appended) and every date from changed onward
// rebuilt. Phases ordered before changed are returned untouched.
//
// changed keeps an explicit start date as the anchor; otherwise it starts the
// day after its dated predecessor. Each later phase starts the day after the
// phase before it. A phase whose predecessor has no dates keeps its own.
func Recompute(phases []models.TrainingPhase, changed models.TrainingPhase) ([]models.TrainingPhase, error) {
	merged := make([]models.TrainingPhase, 0, len(phases)+1)
	replaced := false
	for _, p := range phases {
		if p.ID == changed.ID {
			merged = append(merged, changed)
			replaced = true
			continue
		}
		merged = append(merged, p)
	}
	if !replaced {
		merged = append(merged, changed)
	}

	for _, p := range merged {
		if p.DurationWeeks <= 0 {
			return nil, fmt.Errorf("%w: phase %q needs a positive duration", ErrValidation, p.Name)
		}
	}
	if err := CheckOrders(merged); err != nil {
		return nil, err
	}

	out := SortByOrder(merged)
	idx := slices.IndexFunc(out, func(p models.TrainingPhase) bool { return p.ID == changed.ID })

	anchor := &out[idx]
	if anchor.StartDate == nil && idx > 0 && out[idx-1].EndDate != nil {
		start := models.AddDays(*out[idx-1].EndDate, 1)
		anchor.StartDate = &start
	}
	setEnd(anchor)

	for i := idx + 1; i < len(out); i++ {
		prev := out[i-1]
		if prev.EndDate == nil {
			continue
		}
		start := models.AddDays(*prev.EndDate, 1)
		out[i].StartDate = &start
		setEnd(&out[i])
	}
	return out, nil
}

// Reschedule rebuilds the whole macrocycle from the first phase's start date.
func Reschedule(phases []models.TrainingPhase) ([]models.TrainingPhase, error) {
	if len(phases) == 0 {
		return nil, nil
	}
	sorted := SortByOrder(phases)
	return Recompute(sorted, sorted[0])
}

func setEnd(p *models.TrainingPhase) {
	if p.StartDate == nil {
		p.EndDate = nil
		return
	}
	start := models.Day(*p.StartDate)
	end := PhaseEnd(start, p.DurationWeeks)
	p.StartDate = &start
	p.EndDate = &end
}

// predecessor finds the phase with the highest order below order in a sorted list.
func predecessor(sorted []models.TrainingPhase, order int) (models.TrainingPhase, bool) {
	var prev models.TrainingPhase
	found := false
	for _, p := range sorted {
		if p.Order >= order {
			break
		}
		prev, found = p, true
	}
	return prev, found
}

// CurrentPhase returns the phase active on now's calendar day.
func CurrentPhase(phases []models.TrainingPhase, now time.Time) (models.TrainingPhase, bool) {
	for _, p := range SortByOrder(phases) {
		if p.StatusAt(now) == models.PhaseActive {
			return p, true
		}
	}
	return models.TrainingPhase{}, false
}
