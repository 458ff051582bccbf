package server

import (
	"fmt"
	"net/http"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
)

// phaseRequest is the body of POST and PATCH /phases. Dates are YYYY-MM-DD.
type phaseRequest struct {
	Name          *string   `json:"name"`
	DurationWeeks *int      `json:"duration_weeks"`
	Order         *int      `json:"order"`
	StartDate     *string   `json:"start_date"`
	Intensity     *int      `json:"intensity"`
	WeeklyVolumeM *float64  `json:"weekly_volume_m"`
	Focus         *[]string `json:"focus"`
}

// phaseView adds the derived status to a phase.
type phaseView struct {
	models.TrainingPhase
	Status models.PhaseStatus `json:"status"`
}

func (s *Server) viewPhase(p models.TrainingPhase) phaseView {
	return phaseView{TrainingPhase: p, Status: p.StatusAt(s.now())}
}

func (s *Server) viewPhases(ps []models.TrainingPhase) []phaseView {
	out := make([]phaseView, len(ps))
	for i, p := range ps {
		out[i] = s.viewPhase(p)
	}
	return out
}

func (req phaseRequest) patch() (periodization.PhasePatch, error) {
	p := periodization.PhasePatch{
		Name:          req.Name,
		DurationWeeks: req.DurationWeeks,
		Order:         req.Order,
		Intensity:     req.Intensity,
		WeeklyVolumeM: req.WeeklyVolumeM,
		Focus:         req.Focus,
	}
	if req.StartDate != nil {
		d, err := parseDay(*req.StartDate)
		if err != nil {
			return p, fmt.Errorf("%w: start_date: %v", periodization.ErrValidation, err)
		}
		p.StartDate = &d
	}
	return p, nil
}

// phase builds a new phase. Intensity defaults to 5 and order to "append".
func (req phaseRequest) phase() (models.TrainingPhase, error) {
	patch, err := req.patch()
	if err != nil {
		return models.TrainingPhase{}, err
	}
	p := models.TrainingPhase{Intensity: 5}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.DurationWeeks != nil {
		p.DurationWeeks = *patch.DurationWeeks
	}
	if patch.Order != nil {
		p.Order = *patch.Order
	}
	p.StartDate = patch.StartDate
	if patch.Intensity != nil {
		p.Intensity = *patch.Intensity
	}
	if patch.WeeklyVolumeM != nil {
		p.WeeklyVolumeM = *patch.WeeklyVolumeM
	}
	if patch.Focus != nil {
		p.Focus = *patch.Focus
	}
	return p, nil
}

func (s *Server) handleListPhases(w http.ResponseWriter, r *http.Request) {
	st, err := s.store(r.Context(), userIDFromContext(r))
	if err != nil {
		s.serverError(w, "list phases", err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPhases(st.Phases()))
}

func (s *Server) handleGetPhase(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.store(r.Context(), userIDFromContext(r))
	if err != nil {
		s.serverError(w, "get phase", err)
		return
	}
	p, err := st.Phase(id)
	if err != nil {
		s.writeError(w, "get phase", err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPhase(p))
}

func (s *Server) handleCreatePhase(w http.ResponseWriter, r *http.Request) {
	var req phaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := req.phase()
	if err != nil {
		s.writeError(w, "create phase", err)
		return
	}

	var created models.TrainingPhase
	err = s.mutate(r.Context(), userIDFromContext(r), phasesChanged, func(st *periodization.Store) (err error) {
		created, err = st.AddPhase(p)
		return err
	})
	if err != nil {
		s.writeError(w, "create phase", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewPhase(created))
}

func (s *Server) handleUpdatePhase(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	var req phaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(w, "update phase", err)
		return
	}

	var updated models.TrainingPhase
	err = s.mutate(r.Context(), userIDFromContext(r), phasesChanged, func(st *periodization.Store) (err error) {
		updated, err = st.UpdatePhase(id, patch)
		return err
	})
	if err != nil {
		s.writeError(w, "update phase", err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPhase(updated))
}

func (s *Server) handleDeletePhase(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.mutate(r.Context(), userIDFromContext(r), phasesChanged, func(st *periodization.Store) error {
		return st.DeletePhase(id)
	})
	if err != nil {
		s.writeError(w, "delete phase", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompactPhases(w http.ResponseWriter, r *http.Request) {
	var phases []models.TrainingPhase
	err := s.mutate(r.Context(), userIDFromContext(r), phasesChanged, func(st *periodization.Store) (err error) {
		phases, err = st.Compact()
		return err
	})
	if err != nil {
		s.writeError(w, "compact phases", err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPhases(phases))
}

func (s *Server) handleCurrentPhase(w http.ResponseWriter, r *http.Request) {
	st, err := s.store(r.Context(), userIDFromContext(r))
	if err != nil {
		s.serverError(w, "current phase", err)
		return
	}
	p, ok := st.CurrentPhase()
	if !ok {
		writeErrorMsg(w, http.StatusNotFound, "no active phase")
		return
	}
	writeJSON(w, http.StatusOK, s.viewPhase(p))
}

// handlePhaseLoad reports the zone load inside a dated phase's window.
func (s *Server) handlePhaseLoad(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	uid := userIDFromContext(r)
	st, err := s.store(r.Context(), uid)
	if err != nil {
		s.serverError(w, "phase load", err)
		return
	}
	p, err := st.Phase(id)
	if err != nil {
		s.writeError(w, "phase load", err)
		return
	}
	win, ok := p.Window()
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "phase has no dates yet")
		return
	}
	sessions, err := s.db.QuerySessions(r.Context(), win.Start, win.End, uid)
	if err != nil {
		s.serverError(w, "phase load", err)
		return
	}
	res, err := analytics.AggregatePhase(sessions, p)
	if err != nil {
		s.writeError(w, "phase load", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"phase": s.viewPhase(p),
		"load":  res,
		"weeks": weeksOf(res, p),
	})
}

// weeksOf compares achieved weekly volume with the phase target.
func weeksOf(res analytics.ZoneLoadResult, p models.TrainingPhase) map[string]float64 {
	weeks := float64(p.DurationWeeks)
	actual := res.TotalDistanceM / weeks
	return map[string]float64{
		"target_weekly_volume_m": p.WeeklyVolumeM,
		"actual_weekly_volume_m": actual,
		"volume_change_pct":      analytics.PercentChange(actual, p.WeeklyVolumeM),
	}
}
