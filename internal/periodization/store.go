package periodization

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/google/uuid"
)

// PhasePatch lists the phase fields to change; nil fields are left alone.
type PhasePatch struct {
	Name          *string    `json:"name,omitempty"`
	DurationWeeks *int       `json:"duration_weeks,omitempty"`
	Order         *int       `json:"order,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	Intensity     *int       `json:"intensity,omitempty"`
	WeeklyVolumeM *float64   `json:"weekly_volume_m,omitempty"`
	Focus         *[]string  `json:"focus,omitempty"`
}

// CompetitionPatch lists the competition fields to change; nil fields are left alone.
type CompetitionPatch struct {
	Name     *string                   `json:"name,omitempty"`
	Date     *time.Time                `json:"date,omitempty"`
	Location *string                   `json:"location,omitempty"`
	Type     *models.CompetitionType   `json:"type,omitempty"`
	Priority *models.Priority          `json:"priority,omitempty"`
	Status   *models.CompetitionStatus `json:"status,omitempty"`
	Results  *string                   `json:"results,omitempty"`
}

// Store holds one athlete's macrocycle and competitions. All methods are safe
// for concurrent use; mutations are serialized so a cascade is never observed
// half-applied. Slices and values handed out are copies.
type Store struct {
	mu           sync.Mutex
	phases       []models.TrainingPhase
	competitions []models.Competition
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for timestamps and derived status.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the store contents with persisted records. Phase orders are
// validated; stored dates are kept as they are.
func (s *Store) Load(phases []models.TrainingPhase, competitions []models.Competition) error {
	if err := CheckOrders(phases); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = SortByOrder(phases)
	s.competitions = slices.Clone(competitions)
	return nil
}

// Phases returns the macrocycle ordered by Order.
func (s *Store) Phases() []models.TrainingPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SortByOrder(s.phases)
}

// Phase looks up one phase.
func (s *Store) Phase(id uuid.UUID) (models.TrainingPhase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.phaseIndex(id)
	if i < 0 {
		return models.TrainingPhase{}, fmt.Errorf("phase %s: %w", id, ErrNotFound)
	}
	return s.phases[i].Clone(), nil
}

// AddPhase appends a phase (or inserts it at an explicit free order) and
// schedules it after its predecessor unless it carries its own start date.
func (s *Store) AddPhase(p models.TrainingPhase) (models.TrainingPhase, error) {
	if err := validatePhase(p, true); err != nil {
		return models.TrainingPhase{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt, p.UpdatedAt = now, now

	p = ScheduleNew(s.phases, p)
	next, err := Recompute(s.phases, p)
	if err != nil {
		return models.TrainingPhase{}, err
	}
	s.phases = next
	return s.phases[s.phaseIndex(p.ID)].Clone(), nil
}

// UpdatePhase applies patch and re-chains every phase after the edited one.
// When the order changes, the cascade starts at the lower of the old and new
// positions so the phases that closed the gap are rescheduled too.
func (s *Store) UpdatePhase(id uuid.UUID, patch PhasePatch) (models.TrainingPhase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.phaseIndex(id)
	if i < 0 {
		return models.TrainingPhase{}, fmt.Errorf("phase %s: %w", id, ErrNotFound)
	}
	old := s.phases[i]
	updated := applyPhasePatch(old, patch)
	if err := validatePhase(updated, false); err != nil {
		return models.TrainingPhase{}, err
	}
	updated.UpdatedAt = s.now().UTC()

	var next []models.TrainingPhase
	var err error
	if updated.Order == old.Order {
		next, err = Recompute(s.phases, updated)
	} else {
		next, err = s.reorder(old, updated, patch.StartDate != nil)
	}
	if err != nil {
		return models.TrainingPhase{}, err
	}
	s.phases = next
	return s.phases[s.phaseIndex(id)].Clone(), nil
}

// reorder moves a phase to a new order and re-chains from the lowest affected
// position. The phase now at that position starts after its predecessor or,
// when it is first, on the season's original start date.
func (s *Store) reorder(old, updated models.TrainingPhase, explicitStart bool) ([]models.TrainingPhase, error) {
	moved := make([]models.TrainingPhase, 0, len(s.phases))
	for _, p := range s.phases {
		if p.ID == updated.ID {
			moved = append(moved, updated)
			continue
		}
		moved = append(moved, p.Clone())
	}
	if err := CheckOrders(moved); err != nil {
		return nil, err
	}
	moved = SortByOrder(moved)

	var seasonStart *time.Time
	if first := SortByOrder(s.phases); len(first) > 0 {
		seasonStart = first[0].StartDate
	}

	low := min(old.Order, updated.Order)
	ai := slices.IndexFunc(moved, func(p models.TrainingPhase) bool { return p.Order >= low })
	anchor := moved[ai]
	if !(explicitStart && anchor.ID == updated.ID) {
		switch {
		case ai > 0 && moved[ai-1].EndDate != nil:
			start := models.AddDays(*moved[ai-1].EndDate, 1)
			anchor.StartDate = &start
		case ai == 0 && seasonStart != nil:
			start := *seasonStart
			anchor.StartDate = &start
		}
	}
	return Recompute(moved, anchor)
}

// DeletePhase removes a phase. Remaining phases keep their order values and
// dates; use Compact to close the gap.
func (s *Store) DeletePhase(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.phaseIndex(id)
	if i < 0 {
		return fmt.Errorf("phase %s: %w", id, ErrNotFound)
	}
	s.phases = slices.Delete(s.phases, i, i+1)
	return nil
}

// Compact renumbers phases 1..N in their current sequence and reschedules the
// macrocycle from the first phase's start date.
func (s *Store) Compact() ([]models.TrainingPhase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := SortByOrder(s.phases)
	now := s.now().UTC()
	for i := range sorted {
		if sorted[i].Order != i+1 {
			sorted[i].Order = i + 1
			sorted[i].UpdatedAt = now
		}
	}
	next, err := Reschedule(sorted)
	if err != nil {
		return nil, err
	}
	s.phases = next
	return SortByOrder(s.phases), nil
}

// CurrentPhase returns the phase active today.
func (s *Store) CurrentPhase() (models.TrainingPhase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CurrentPhase(s.phases, s.now())
}

// Competitions returns all competitions ordered by date.
func (s *Store) Competitions() []models.Competition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.competitions)
	slices.SortStableFunc(out, func(a, b models.Competition) int { return a.Date.Compare(b.Date) })
	return out
}

// AddCompetition stores a new competition, defaulting type, priority and status.
func (s *Store) AddCompetition(c models.Competition) (models.Competition, error) {
	c = competitionDefaults(c)
	if err := validateCompetition(c); err != nil {
		return models.Competition{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if s.competitionIndex(c.ID) >= 0 {
		return models.Competition{}, fmt.Errorf("%w: competition %s already exists", ErrValidation, c.ID)
	}
	now := s.now().UTC()
	c.Date = models.Day(c.Date)
	c.CreatedAt, c.UpdatedAt = now, now
	s.competitions = append(s.competitions, c)
	return c, nil
}

// UpdateCompetition applies patch to a stored competition.
func (s *Store) UpdateCompetition(id uuid.UUID, patch CompetitionPatch) (models.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.competitionIndex(id)
	if i < 0 {
		return models.Competition{}, fmt.Errorf("competition %s: %w", id, ErrNotFound)
	}
	c := applyCompetitionPatch(s.competitions[i], patch)
	if err := validateCompetition(c); err != nil {
		return models.Competition{}, err
	}
	c.Date = models.Day(c.Date)
	c.UpdatedAt = s.now().UTC()
	s.competitions[i] = c
	return c, nil
}

// DeleteCompetition removes a competition.
func (s *Store) DeleteCompetition(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.competitionIndex(id)
	if i < 0 {
		return fmt.Errorf("competition %s: %w", id, ErrNotFound)
	}
	s.competitions = slices.Delete(s.competitions, i, i+1)
	return nil
}

// MainCompetition returns the upcoming competition with the highest priority,
// earliest date first among equals.
func (s *Store) MainCompetition() (models.Competition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MainCompetition(s.competitions)
}

// DaysUntil counts calendar days from the store's today to c.
func (s *Store) DaysUntil(c models.Competition) int {
	return c.DaysUntil(s.now())
}

// MainCompetition picks the main competition out of cs.
func MainCompetition(cs []models.Competition) (models.Competition, bool) {
	var best models.Competition
	found := false
	for _, c := range cs {
		if c.Status != models.CompetitionUpcoming {
			continue
		}
		if !found ||
			c.Priority.Rank() > best.Priority.Rank() ||
			(c.Priority.Rank() == best.Priority.Rank() && c.Date.Before(best.Date)) {
			best, found = c, true
		}
	}
	return best, found
}

func (s *Store) phaseIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.phases, func(p models.TrainingPhase) bool { return p.ID == id })
}

func (s *Store) competitionIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.competitions, func(c models.Competition) bool { return c.ID == id })
}

func applyPhasePatch(p models.TrainingPhase, patch PhasePatch) models.TrainingPhase {
	p = p.Clone()
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.DurationWeeks != nil {
		p.DurationWeeks = *patch.DurationWeeks
	}
	if patch.Order != nil {
		p.Order = *patch.Order
	}
	if patch.StartDate != nil {
		start := models.Day(*patch.StartDate)
		p.StartDate = &start
	}
	if patch.Intensity != nil {
		p.Intensity = *patch.Intensity
	}
	if patch.WeeklyVolumeM != nil {
		p.WeeklyVolumeM = *patch.WeeklyVolumeM
	}
	if patch.Focus != nil {
		p.Focus = slices.Clone(*patch.Focus)
	}
	return p
}

func applyCompetitionPatch(c models.Competition, patch CompetitionPatch) models.Competition {
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Date != nil {
		c.Date = *patch.Date
	}
	if patch.Location != nil {
		c.Location = *patch.Location
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.Priority != nil {
		c.Priority = *patch.Priority
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Results != nil {
		r := *patch.Results
		c.Results = &r
	}
	return c
}

// validatePhase checks field ranges. A zero order is allowed on insert and
// means "append".
func validatePhase(p models.TrainingPhase, insert bool) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: phase name is required", ErrValidation)
	case p.DurationWeeks <= 0:
		return fmt.Errorf("%w: duration_weeks must be positive", ErrValidation)
	case p.Order < 0 || (p.Order == 0 && !insert):
		return fmt.Errorf("%w: order must be positive", ErrValidation)
	case p.Intensity < 1 || p.Intensity > 10:
		return fmt.Errorf("%w: intensity must be between 1 and 10", ErrValidation)
	case p.WeeklyVolumeM < 0:
		return fmt.Errorf("%w: weekly_volume_m must not be negative", ErrValidation)
	}
	return nil
}

func competitionDefaults(c models.Competition) models.Competition {
	if c.Type == "" {
		c.Type = models.CompetitionLocal
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	if c.Status == "" {
		c.Status = models.CompetitionUpcoming
	}
	return c
}

func validateCompetition(c models.Competition) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: competition name is required", ErrValidation)
	case c.Date.IsZero():
		return fmt.Errorf("%w: competition date is required", ErrValidation)
	case !c.Type.Valid():
		return fmt.Errorf("%w: unknown competition type %q", ErrValidation, c.Type)
	case c.Priority.Rank() == 0:
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, c.Priority)
	case !c.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrValidation, c.Status)
	}
	return nil
}
