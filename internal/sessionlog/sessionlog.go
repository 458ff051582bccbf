// Package sessionlog reads the YAML files athletes keep locally: session logs
// (one file per day, week or import) and season plans.
//
// A session log looks like:
//
//	source: pool-notes
//	sessions:
//	  - date: 2025-01-01
//	    distance_m: 3000
//	    rpe: 5
//	    zones: {z1: 1000, z2: 2000}
//
// A season plan lists phases in order and, optionally, competitions:
//
//	start: 2025-01-06
//	phases:
//	  - {name: Base, weeks: 4, intensity: 4, weekly_volume_m: 20000}
//	  - {name: Build, weeks: 6}
//	competitions:
//	  - {name: Nationals, date: 2025-04-10, type: national, priority: high}
package sessionlog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
	"gopkg.in/yaml.v3"
)

// File is a session log.
type File struct {
	Source   string                 `yaml:"source,omitempty"`
	Records  []models.SessionRecord `yaml:"sessions"`
}

// IsLog reports whether path has a YAML extension.
func IsLog(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Decode parses a session log. Unknown keys are an error.
func Decode(r io.Reader) (File, error) {
	var f File
	if err := strictDecode(r, &f); err != nil {
		return File{}, fmt.Errorf("parsing session log: %w", err)
	}
	return f, nil
}

// Read parses the session log at path.
func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Sessions validates and converts every record in the log.
func (f File) Sessions() ([]models.Session, error) {
	out := make([]models.Session, 0, len(f.Records))
	for i, rec := range f.Records {
		s, err := rec.Session()
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadDir loads every session log under dir.
func ReadDir(dir string) ([]models.Session, error) {
	var all []models.Session
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsLog(path) {
			return nil
		}
		f, err := Read(path)
		if err != nil {
			return err
		}
		sessions, err := f.Sessions()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, sessions...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// PhaseEntry is one phase of a season plan. Phases are ordered as listed.
type PhaseEntry struct {
	Name          string   `yaml:"name"`
	Weeks         int      `yaml:"weeks"`
	Intensity     int      `yaml:"intensity,omitempty"`
	WeeklyVolumeM float64  `yaml:"weekly_volume_m,omitempty"`
	Focus         []string `yaml:"focus,omitempty"`
}

// CompetitionEntry is one competition of a season plan.
type CompetitionEntry struct {
	Name     string `yaml:"name"`
	Date     string `yaml:"date"`
	Location string `yaml:"location,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Priority string `yaml:"priority,omitempty"`
	Status   string `yaml:"status,omitempty"`
}

// Season is a season plan.
type Season struct {
	Start        string             `yaml:"start,omitempty"`
	Phases       []PhaseEntry       `yaml:"phases"`
	Competitions []CompetitionEntry `yaml:"competitions,omitempty"`
}

// ReadSeason parses the season plan at path.
func ReadSeason(path string) (Season, error) {
	f, err := os.Open(path)
	if err != nil {
		return Season{}, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var s Season
	if err := strictDecode(f, &s); err != nil {
		return Season{}, fmt.Errorf("parsing season %s: %w", path, err)
	}
	return s, nil
}

// Store schedules the plan into a periodization store. The first phase
// starts on Start and every later phase follows its predecessor.
func (s Season) Store(now func() time.Time) (*periodization.Store, error) {
	st := periodization.NewStore(periodization.WithClock(now))

	var start *time.Time
	if s.Start != "" {
		d, err := models.ParseDay(s.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: season start: %v", periodization.ErrValidation, err)
		}
		start = &d
	}

	for i, e := range s.Phases {
		p := models.TrainingPhase{
			Name:          e.Name,
			DurationWeeks: e.Weeks,
			Order:         i + 1,
			Intensity:     e.Intensity,
			WeeklyVolumeM: e.WeeklyVolumeM,
			Focus:         e.Focus,
		}
		if p.Intensity == 0 {
			p.Intensity = 5
		}
		if i == 0 {
			p.StartDate = start
		}
		if _, err := st.AddPhase(p); err != nil {
			return nil, fmt.Errorf("phase %d (%s): %w", i+1, e.Name, err)
		}
	}

	for _, e := range s.Competitions {
		d, err := models.ParseDay(e.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: competition %s: %v", periodization.ErrValidation, e.Name, err)
		}
		c := models.Competition{
			Name:     e.Name,
			Date:     d,
			Location: e.Location,
			Type:     models.CompetitionType(e.Type),
			Priority: models.Priority(e.Priority),
			Status:   models.CompetitionStatus(e.Status),
		}
		if _, err := st.AddCompetition(c); err != nil {
			return nil, fmt.Errorf("competition %s: %w", e.Name, err)
		}
	}
	return st, nil
}

func strictDecode(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
