package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
	"github.com/claude/swimtrack/internal/report"
	"golang.org/x/sync/errgroup"
)

func (s *Server) sessionsIn(ctx context.Context, uid int, windows ...models.DateWindow) ([]models.Session, error) {
	var start, end time.Time
	for i, w := range windows {
		if i == 0 || w.Start.Before(start) {
			start = w.Start
		}
		if i == 0 || w.End.After(end) {
			end = w.End
		}
	}
	return s.db.QuerySessions(ctx, start, end, uid)
}

func (s *Server) handleZoneLoad(w http.ResponseWriter, r *http.Request) {
	win, err := s.parseWindow(r, "start", "end")
	if err != nil {
		s.writeError(w, "zone load", err)
		return
	}
	sessions, err := s.sessionsIn(r.Context(), userIDFromContext(r), win)
	if err != nil {
		s.serverError(w, "zone load", err)
		return
	}
	res, err := analytics.Aggregate(sessions, win)
	if err != nil {
		s.writeError(w, "zone load", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCompare compares window A (current) with window B (baseline). B
// defaults to the equally long window right before A. Without a metric every
// metric is compared.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	a, err := s.parseWindow(r, "a_start", "a_end")
	if err != nil {
		s.writeError(w, "compare", err)
		return
	}
	b := models.PreviousWindow(a)
	q := r.URL.Query()
	if q.Get("b_start") != "" || q.Get("b_end") != "" {
		if q.Get("b_start") == "" || q.Get("b_end") == "" {
			writeErrorMsg(w, http.StatusBadRequest, "b_start and b_end must be given together")
			return
		}
		if b, err = s.parseWindow(r, "b_start", "b_end"); err != nil {
			s.writeError(w, "compare", err)
			return
		}
	}

	sessions, err := s.sessionsIn(r.Context(), userIDFromContext(r), a, b)
	if err != nil {
		s.serverError(w, "compare", err)
		return
	}

	if metric := q.Get("metric"); metric != "" {
		cmp, err := analytics.CompareWindows(sessions, a, b, metric)
		if err != nil {
			s.writeError(w, "compare", err)
			return
		}
		writeJSON(w, http.StatusOK, cmp)
		return
	}
	all, err := analytics.CompareAll(sessions, a, b)
	if err != nil {
		s.writeError(w, "compare", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleBestWindow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	length, err := strconv.Atoi(q.Get("length"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "length parameter must be an integer")
		return
	}
	mode := s.mode
	if v := q.Get("mode"); v != "" {
		if mode, err = analytics.ParseWindowMode(v); err != nil {
			s.writeError(w, "best window", err)
			return
		}
	}

	sessions, err := s.db.QuerySessions(r.Context(), time.Time{}, time.Time{}, userIDFromContext(r))
	if err != nil {
		s.serverError(w, "best window", err)
		return
	}
	best, err := analytics.FindBestWindow(sessions, length, mode)
	if err != nil {
		s.writeError(w, "best window", err)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	win, err := s.parseWindow(r, "start", "end")
	if err != nil {
		s.writeError(w, "weekly", err)
		return
	}
	sessions, err := s.sessionsIn(r.Context(), userIDFromContext(r), win)
	if err != nil {
		s.serverError(w, "weekly", err)
		return
	}
	weeks, err := analytics.WeeklyTotals(sessions, win)
	if err != nil {
		s.writeError(w, "weekly", err)
		return
	}
	writeJSON(w, http.StatusOK, weeks)
}

// handleDashboard serves the cached dashboard for today when there is one and
// otherwise loads sessions and the macrocycle in parallel and builds it.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userIDFromContext(r)
	now := s.now()
	variant := fmt.Sprintf("%s:%s", models.Day(now).Format(models.DateLayout), s.mode)

	if s.cache != nil {
		var cached report.Dashboard
		hit, err := s.cache.GetDashboard(ctx, uid, variant, &cached)
		if err != nil {
			s.log.Warn("dashboard cache read failed", "error", err)
		} else if hit {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	var sessions []models.Session
	var st *periodization.Store
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sessions, err = s.db.QuerySessions(gctx, time.Time{}, time.Time{}, uid)
		return err
	})
	g.Go(func() (err error) {
		st, err = s.store(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		s.serverError(w, "dashboard", err)
		return
	}

	d, err := report.Build(ctx, report.Input{
		Sessions:     sessions,
		Phases:       st.Phases(),
		Competitions: st.Competitions(),
		Now:          now,
		Mode:         s.mode,
	})
	if err != nil {
		s.writeError(w, "dashboard", err)
		return
	}

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, uid, variant, d); err != nil {
			s.log.Warn("dashboard cache write failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, d)
}
