package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/storage"
)

// sessionUpload is the POST /api/v1/sessions body.
type sessionUpload struct {
	Source   string                 `json:"source,omitempty"`
	Sessions []models.SessionRecord `json:"sessions"`
}

// UploadResult reports how many uploaded sessions were new.
type UploadResult struct {
	Received int      `json:"received"`
	Inserted int      `json:"inserted"`
	IDs      []string `json:"ids"`
}

func (s *Server) handleUploadSessions(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	uid := userIDFromContext(r)

	var body sessionUpload
	if err := decodeJSON(r, &body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Sessions) == 0 {
		writeErrorMsg(w, http.StatusBadRequest, "no sessions in upload")
		return
	}

	sessions := make([]models.Session, 0, len(body.Sessions))
	for i, rec := range body.Sessions {
		sess, err := rec.Session()
		if err != nil {
			s.writeError(w, "upload sessions", fmt.Errorf("session %d: %w", i, err))
			return
		}
		sess.UserID = uid
		sessions = append(sessions, sess)
	}

	result := UploadResult{Received: len(sessions), IDs: make([]string, 0, len(sessions))}
	var uploadErr error
	for _, sess := range sessions {
		inserted, err := s.db.InsertSession(r.Context(), sess)
		if err != nil {
			uploadErr = err
			break
		}
		if inserted {
			result.Inserted++
		}
		result.IDs = append(result.IDs, sess.ID.String())
	}

	source := body.Source
	if source == "" {
		source = "api"
	}
	s.logImport(uid, source, result, uploadErr, int(time.Since(started).Milliseconds()))

	if result.Inserted > 0 {
		s.invalidate(r.Context(), uid)
	}
	if uploadErr != nil {
		s.serverError(w, "upload sessions", uploadErr)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuerySessions(w http.ResponseWriter, r *http.Request) {
	var start, end time.Time
	if r.URL.Query().Get("start") != "" || r.URL.Query().Get("end") != "" {
		win, err := s.parseWindow(r, "start", "end")
		if err != nil {
			s.writeError(w, "query sessions", err)
			return
		}
		start, end = win.Start, win.End
	}

	sessions, err := s.db.QuerySessions(r.Context(), start, end, userIDFromContext(r))
	if err != nil {
		s.serverError(w, "query sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	uid := userIDFromContext(r)
	deleted, err := s.db.DeleteSession(r.Context(), id, uid)
	if err != nil {
		s.serverError(w, "delete session", err)
		return
	}
	if !deleted {
		writeErrorMsg(w, http.StatusNotFound, "session not found")
		return
	}
	s.invalidate(r.Context(), uid)
	w.WriteHeader(http.StatusNoContent)
}

// logImport records an upload's result to the import_logs table.
func (s *Server) logImport(uid int, source string, result UploadResult, importErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	log := storage.ImportLog{
		UserID:           uid,
		Source:           source,
		Status:           status,
		SessionsReceived: result.Received,
		SessionsInserted: result.Inserted,
		DurationMs:       &durationMs,
		ErrorMessage:     errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, log); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}
