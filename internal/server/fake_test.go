package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/storage"
	"github.com/google/uuid"
)

// fakeBackend is an in-memory Backend for handler tests.
type fakeBackend struct {
	mu           sync.Mutex
	sessions     []models.Session
	phases       map[int][]models.TrainingPhase
	competitions map[int][]models.Competition
	importLogs   []storage.ImportLog
	users        map[string]int
	queries      int
	failSave     bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		phases:       make(map[int][]models.TrainingPhase),
		competitions: make(map[int][]models.Competition),
		users:        map[string]int{"local": 1},
	}
}

func (f *fakeBackend) InsertSession(_ context.Context, s models.Session) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.sessions {
		if e.ID == s.ID {
			return false, nil
		}
	}
	f.sessions = append(f.sessions, s)
	return true, nil
}

func (f *fakeBackend) DeleteSession(_ context.Context, id uuid.UUID, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.sessions, func(s models.Session) bool { return s.ID == id && s.UserID == userID })
	if i < 0 {
		return false, nil
	}
	f.sessions = slices.Delete(f.sessions, i, i+1)
	return true, nil
}

func (f *fakeBackend) QuerySessions(_ context.Context, start, end time.Time, userID int) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	var out []models.Session
	for _, s := range f.sessions {
		if s.UserID != userID {
			continue
		}
		if !start.IsZero() && s.Date.Before(models.Day(start)) {
			continue
		}
		if !end.IsZero() && s.Date.After(models.Day(end)) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeBackend) LoadPhases(_ context.Context, userID int) ([]models.TrainingPhase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.phases[userID]), nil
}

func (f *fakeBackend) SavePhases(_ context.Context, userID int, phases []models.TrainingPhase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("disk full")
	}
	f.phases[userID] = slices.Clone(phases)
	return nil
}

func (f *fakeBackend) LoadCompetitions(_ context.Context, userID int) ([]models.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.competitions[userID]), nil
}

func (f *fakeBackend) SaveCompetitions(_ context.Context, userID int, comps []models.Competition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("disk full")
	}
	f.competitions[userID] = slices.Clone(comps)
	return nil
}

func (f *fakeBackend) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.users[login]; ok {
		return id, nil
	}
	id := len(f.users) + 1
	f.users[login] = id
	return id, nil
}

func (f *fakeBackend) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.importLogs = append(f.importLogs, log)
	return int64(len(f.importLogs)), nil
}

func (f *fakeBackend) QueryImportLogs(_ context.Context, userID, limit int) ([]storage.ImportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ImportLog
	for _, l := range f.importLogs {
		if l.UserID == userID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetDataStats(_ context.Context, userID int) (*storage.DataStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := &storage.DataStats{TotalPhases: int64(len(f.phases[userID]))}
	for _, s := range f.sessions {
		if s.UserID == userID {
			st.TotalSessions++
			st.TotalDistanceM += s.DistanceM
		}
	}
	return st, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
