// Package report assembles the training dashboard: the current and previous
// week, their comparison, best 7- and 30-window blocks, recent weekly volume,
// and where the athlete stands in the macrocycle.
package report

import (
	"context"
	"time"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
	"golang.org/x/sync/errgroup"
)

// RecentWeeks is how many weeks of volume the dashboard reports.
const RecentWeeks = 8

// Dashboard is a snapshot of training state on Date.
type Dashboard struct {
	Date            string                   `json:"date"`
	Mode            analytics.WindowMode     `json:"best_window_mode"`
	ThisWeek        analytics.ZoneLoadResult `json:"this_week"`
	LastWeek        analytics.ZoneLoadResult `json:"last_week"`
	WeekOverWeek    []analytics.Comparison   `json:"week_over_week"`
	Best7           analytics.BestWindow     `json:"best_7"`
	Best30          analytics.BestWindow     `json:"best_30"`
	Weekly          []analytics.WeekTotal    `json:"weekly"`
	CurrentPhase    *models.TrainingPhase    `json:"current_phase,omitempty"`
	MainCompetition *models.Competition      `json:"main_competition,omitempty"`
	DaysUntilMain   *int                     `json:"days_until_main,omitempty"`
}

// Input is the data a dashboard is computed from.
type Input struct {
	Sessions     []models.Session
	Phases       []models.TrainingPhase
	Competitions []models.Competition
	Now          time.Time
	Mode         analytics.WindowMode
}

// Build computes every dashboard section concurrently. The sections are pure
// functions of in, so the only error sources are invalid windows or modes.
func Build(ctx context.Context, in Input) (Dashboard, error) {
	today := models.Day(in.Now)
	thisWeek := models.WeekWindow(today)
	lastWeek := models.PreviousWindow(thisWeek)
	recent := models.DateWindow{Start: models.AddDays(thisWeek.Start, -7*(RecentWeeks-1)), End: thisWeek.End}

	d := Dashboard{Date: today.Format(models.DateLayout), Mode: in.Mode}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.ThisWeek, err = analytics.Aggregate(in.Sessions, thisWeek)
		return err
	})
	g.Go(func() (err error) {
		d.LastWeek, err = analytics.Aggregate(in.Sessions, lastWeek)
		return err
	})
	g.Go(func() (err error) {
		d.WeekOverWeek, err = analytics.CompareAll(in.Sessions, thisWeek, lastWeek)
		return err
	})
	g.Go(func() (err error) {
		d.Best7, err = analytics.FindBestWindow(in.Sessions, 7, in.Mode)
		return err
	})
	g.Go(func() (err error) {
		d.Best30, err = analytics.FindBestWindow(in.Sessions, 30, in.Mode)
		return err
	})
	g.Go(func() (err error) {
		d.Weekly, err = analytics.WeeklyTotals(in.Sessions, recent)
		return err
	})
	g.Go(func() error {
		if p, ok := periodization.CurrentPhase(in.Phases, today); ok {
			d.CurrentPhase = &p
		}
		if c, ok := periodization.MainCompetition(in.Competitions); ok {
			days := c.DaysUntil(today)
			d.MainCompetition, d.DaysUntilMain = &c, &days
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
