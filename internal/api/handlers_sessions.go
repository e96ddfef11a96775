package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buildline/worktrack/internal/engine"
	"github.com/buildline/worktrack/internal/models"
)

// SessionHandler handles session lifecycle HTTP requests.
type SessionHandler struct {
	engine *engine.Engine
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(eng *engine.Engine) *SessionHandler {
	return &SessionHandler{engine: eng}
}

// writeEngineError maps engine error kinds to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, "no active session")
	case errors.Is(err, engine.ErrBuildNotFound):
		writeError(w, http.StatusNotFound, "build not found")
	case errors.Is(err, engine.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Start handles POST /sessions/start. If the worker already has an open
// session it is returned unchanged (resume after reload/reconnect).
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.WorkerID == "" || req.BuildNumber == "" {
		writeError(w, http.StatusBadRequest, "workerId and buildNumber are required")
		return
	}

	sess, err := h.engine.StartOrResume(req.WorkerID, req.BuildNumber)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// GetActive handles GET /sessions/active/{workerId}.
func (h *SessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerId")

	sess, err := h.engine.GetOpen(workerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Pause handles POST /sessions/pause.
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.workerFromBody(w, r)
	if !ok {
		return
	}

	sess, err := h.engine.Pause(workerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Resume handles POST /sessions/resume.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	workerID, ok := h.workerFromBody(w, r)
	if !ok {
		return
	}

	sess, err := h.engine.Resume(workerID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Defects handles POST /sessions/defects. The count overwrites the
// stored value; negative input is clamped to zero.
func (h *SessionHandler) Defects(w http.ResponseWriter, r *http.Request) {
	var req models.DefectsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "workerId is required")
		return
	}

	sess, err := h.engine.RecordDefects(req.WorkerID, req.Defects)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Popup handles POST /sessions/popup.
func (h *SessionHandler) Popup(w http.ResponseWriter, r *http.Request) {
	var req models.PopupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "workerId is required")
		return
	}

	sess, err := h.engine.RecordPopupResponse(req.WorkerID, req.Response)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Submit handles POST /sessions/submit. An absent totalParts is stored
// as null, never coerced to zero.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "workerId is required")
		return
	}

	sess, err := h.engine.Submit(req.WorkerID, req.TotalParts, req.Auto)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitResponse{
		Message: "session submitted",
		Session: sess,
	})
}

func (h *SessionHandler) workerFromBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.WorkerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return "", false
	}
	if req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "workerId is required")
		return "", false
	}
	return req.WorkerID, true
}
