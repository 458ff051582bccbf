package server

import (
	"fmt"
	"net/http"

	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/periodization"
)

// competitionRequest is the body of POST and PATCH /competitions.
type competitionRequest struct {
	Name     *string                   `json:"name"`
	Date     *string                   `json:"date"`
	Location *string                   `json:"location"`
	Type     *models.CompetitionType   `json:"type"`
	Priority *models.Priority          `json:"priority"`
	Status   *models.CompetitionStatus `json:"status"`
	Results  *string                   `json:"results"`
}

func (req competitionRequest) patch() (periodization.CompetitionPatch, error) {
	p := periodization.CompetitionPatch{
		Name:     req.Name,
		Location: req.Location,
		Type:     req.Type,
		Priority: req.Priority,
		Status:   req.Status,
		Results:  req.Results,
	}
	if req.Date != nil {
		d, err := parseDay(*req.Date)
		if err != nil {
			return p, fmt.Errorf("%w: date: %v", periodization.ErrValidation, err)
		}
		p.Date = &d
	}
	return p, nil
}

// competitionView adds the days remaining to a competition.
type competitionView struct {
	models.Competition
	DaysUntil int `json:"days_until"`
}

func (s *Server) viewCompetition(c models.Competition) competitionView {
	return competitionView{Competition: c, DaysUntil: c.DaysUntil(s.now())}
}

func (s *Server) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	st, err := s.store(r.Context(), userIDFromContext(r))
	if err != nil {
		s.serverError(w, "list competitions", err)
		return
	}
	comps := st.Competitions()
	out := make([]competitionView, len(comps))
	for i, c := range comps {
		out[i] = s.viewCompetition(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req competitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(w, "create competition", err)
		return
	}
	var c models.Competition
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
	c.Results = patch.Results

	var created models.Competition
	err = s.mutate(r.Context(), userIDFromContext(r), competitionsChanged, func(st *periodization.Store) (err error) {
		created, err = st.AddCompetition(c)
		return err
	})
	if err != nil {
		s.writeError(w, "create competition", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewCompetition(created))
}

func (s *Server) handleUpdateCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	var req competitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(w, "update competition", err)
		return
	}

	var updated models.Competition
	err = s.mutate(r.Context(), userIDFromContext(r), competitionsChanged, func(st *periodization.Store) (err error) {
		updated, err = st.UpdateCompetition(id, patch)
		return err
	})
	if err != nil {
		s.writeError(w, "update competition", err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewCompetition(updated))
}

func (s *Server) handleDeleteCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.mutate(r.Context(), userIDFromContext(r), competitionsChanged, func(st *periodization.Store) error {
		return st.DeleteCompetition(id)
	})
	if err != nil {
		s.writeError(w, "delete competition", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMainCompetition(w http.ResponseWriter, r *http.Request) {
	st, err := s.store(r.Context(), userIDFromContext(r))
	if err != nil {
		s.serverError(w, "main competition", err)
		return
	}
	c, ok := st.MainCompetition()
	if !ok {
		writeErrorMsg(w, http.StatusNotFound, "no upcoming competition")
		return
	}
	writeJSON(w, http.StatusOK, s.viewCompetition(c))
}
