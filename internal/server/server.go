package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
	"github.com/claude/swimtrack/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Backend is the persistence the HTTP layer needs. *storage.DB satisfies it.
type Backend interface {
	InsertSession(ctx context.Context, s models.Session) (bool, error)
	DeleteSession(ctx context.Context, id uuid.UUID, userID int) (bool, error)
	QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error)
	LoadPhases(ctx context.Context, userID int) ([]models.TrainingPhase, error)
	SavePhases(ctx context.Context, userID int, phases []models.TrainingPhase) error
	LoadCompetitions(ctx context.Context, userID int) ([]models.Competition, error)
	SaveCompetitions(ctx context.Context, userID int, comps []models.Competition) error
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

var _ Backend = (*storage.DB)(nil)

// DashboardCache caches dashboard responses per user. *cache.Cache satisfies it.
type DashboardCache interface {
	GetDashboard(ctx context.Context, userID int, variant string, dst any) (bool, error)
	SetDashboard(ctx context.Context, userID int, variant string, v any) error
	InvalidateUser(ctx context.Context, userID int) error
}

// Options carries the settings the handlers need from config.
type Options struct {
	APIKey            string
	WindowMode        analytics.WindowMode
	DefaultWindowDays int
	Cache             DashboardCache
	Now               func() time.Time
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db         Backend
	cache      DashboardCache
	log        *slog.Logger
	apiKey     string
	mode       analytics.WindowMode
	windowDays int
	now        func() time.Time
	whois      WhoIsClient
	router     chi.Router

	mu     sync.Mutex
	stores map[int]*periodization.Store

	// writeMu serializes store mutations with their write-through so the
	// database never receives an older snapshot after a newer one.
	writeMu sync.Mutex
}

// New creates a new Server with all routes configured.
func New(db Backend, opts Options, log *slog.Logger) *Server {
	s := &Server{
		db:         db,
		cache:      opts.Cache,
		log:        log,
		apiKey:     opts.APIKey,
		mode:       opts.WindowMode,
		windowDays: opts.DefaultWindowDays,
		now:        opts.Now,
		router:     chi.NewRouter(),
		stores:     make(map[int]*periodization.Store),
	}
	if s.mode == "" {
		s.mode = analytics.ModeSessionCount
	}
	if s.windowDays <= 0 {
		s.windowDays = 30
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the local dev user to the
// Tailscale login of the caller.
func (s *Server) SetTailscale(lc WhoIsClient) {
	s.whois = lc
}

// MountMCP serves an MCP handler at /mcp behind the same identity middleware.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", h)
	s.router.With(s.identity).Handle("/mcp/*", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/stats", s.handleStats)
		r.Get("/imports", s.handleImportLogs)

		r.Get("/sessions", s.handleQuerySessions)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/sessions", s.handleUploadSessions)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/zones", s.handleZoneLoad)
			r.Get("/compare", s.handleCompare)
			r.Get("/best-window", s.handleBestWindow)
			r.Get("/weekly", s.handleWeekly)
			r.Get("/dashboard", s.handleDashboard)
		})

		r.Route("/phases", func(r chi.Router) {
			r.Get("/", s.handleListPhases)
			r.Post("/", s.handleCreatePhase)
			r.Get("/current", s.handleCurrentPhase)
			r.Post("/compact", s.handleCompactPhases)
			r.Get("/{id}", s.handleGetPhase)
			r.Patch("/{id}", s.handleUpdatePhase)
			r.Delete("/{id}", s.handleDeletePhase)
			r.Get("/{id}/load", s.handlePhaseLoad)
		})

		r.Route("/competitions", func(r chi.Router) {
			r.Get("/", s.handleListCompetitions)
			r.Post("/", s.handleCreateCompetition)
			r.Get("/main", s.handleMainCompetition)
			r.Patch("/{id}", s.handleUpdateCompetition)
			r.Delete("/{id}", s.handleDeleteCompetition)
		})
	})
}

// store returns the user's periodization store, loading it on first use.
func (s *Server) store(ctx context.Context, uid int) (*periodization.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.stores[uid]; ok {
		return st, nil
	}
	phases, err := s.db.LoadPhases(ctx, uid)
	if err != nil {
		return nil, err
	}
	comps, err := s.db.LoadCompetitions(ctx, uid)
	if err != nil {
		return nil, err
	}
	st := periodization.NewStore(periodization.WithClock(s.now))
	if err := st.Load(phases, comps); err != nil {
		return nil, err
	}
	s.stores[uid] = st
	return st, nil
}

// evict drops a cached store so the next request reloads it from the database.
func (s *Server) evict(uid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, uid)
}

type mutation int

const (
	phasesChanged mutation = 1 << iota
	competitionsChanged
)

// mutate applies fn to the user's store and persists what changed. A failed
// save evicts the store so memory does not drift from the database.
func (s *Server) mutate(ctx context.Context, uid int, what mutation, fn func(*periodization.Store) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	st, err := s.store(ctx, uid)
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	if what&phasesChanged != 0 {
		if err := s.db.SavePhases(ctx, uid, st.Phases()); err != nil {
			s.evict(uid)
			return fmt.Errorf("saving phases: %w", err)
		}
	}
	if what&competitionsChanged != 0 {
		if err := s.db.SaveCompetitions(ctx, uid, st.Competitions()); err != nil {
			s.evict(uid)
			return fmt.Errorf("saving competitions: %w", err)
		}
	}
	s.invalidate(ctx, uid)
	return nil
}

// invalidate drops cached dashboards after a write. Failures only cost a stale
// dashboard until the TTL expires.
func (s *Server) invalidate(ctx context.Context, uid int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, uid); err != nil {
		s.log.Warn("dashboard cache invalidation failed", "user_id", uid, "error", err)
	}
}
