package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.serverError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.serverError(w, "import logs", err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors to 400/404 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, periodization.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidWindow),
		errors.Is(err, models.ErrInvalidSession),
		errors.Is(err, analytics.ErrInvalidArgument),
		errors.Is(err, analytics.ErrUnknownMetric),
		errors.Is(err, periodization.ErrValidation),
		errors.Is(err, periodization.ErrDuplicateOrder):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	default:
		s.serverError(w, op, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, "error", err)
	writeErrorMsg(w, http.StatusInternalServerError, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// parseDay accepts YYYY-MM-DD or RFC3339 and truncates to the calendar day.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return models.Day(t), nil
	}
	return models.ParseDay(s)
}

// parseWindow reads an inclusive day window from the startKey/endKey query
// parameters. The end defaults to today and the start to the configured number
// of days before it.
func (s *Server) parseWindow(r *http.Request, startKey, endKey string) (models.DateWindow, error) {
	q := r.URL.Query()
	end := models.Day(s.now())
	if v := q.Get(endKey); v != "" {
		d, err := parseDay(v)
		if err != nil {
			return models.DateWindow{}, fmt.Errorf("%w: %s: %v", models.ErrInvalidWindow, endKey, err)
		}
		end = d
	}
	start := models.AddDays(end, -(s.windowDays - 1))
	if v := q.Get(startKey); v != "" {
		d, err := parseDay(v)
		if err != nil {
			return models.DateWindow{}, fmt.Errorf("%w: %s: %v", models.ErrInvalidWindow, startKey, err)
		}
		start = d
	}
	return models.NewDateWindow(start, end)
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
