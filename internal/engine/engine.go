package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/buildline/worktrack/internal/models"
	"github.com/buildline/worktrack/internal/store"
)

var (
	// ErrNoActiveSession means the worker has no open session, including
	// the case where their last session was already submitted.
	ErrNoActiveSession = errors.New("no active session")
	// ErrBuildNotFound means the build number is not in the catalog.
	ErrBuildNotFound = errors.New("build not found")
	// ErrInvalidArgument means the caller passed a malformed value, such
	// as an unknown popup response kind.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Engine owns all session state transitions. It is stateless between
// calls; every session lives in the store, keyed by worker.
type Engine struct {
	sessions *store.SessionStore
	builds   *store.BuildStore
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a session lifecycle engine.
func New(sessions *store.SessionStore, builds *store.BuildStore, logger *slog.Logger) *Engine {
	return &Engine{
		sessions: sessions,
		builds:   builds,
		logger:   logger,
		now:      time.Now,
	}
}

// StartOrResume returns the worker's open session if one exists, else
// creates a new one from the build's catalog entry. Calling it twice
// without an intervening submit never creates a second session, which
// makes client reloads and reconnects safe.
func (e *Engine) StartOrResume(workerID, buildNumber string) (*models.Session, error) {
	existing, err := e.sessions.GetOpenByWorker(workerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	build, err := e.builds.GetByNumber(buildNumber)
	if err != nil {
		return nil, err
	}
	if build == nil {
		return nil, fmt.Errorf("%w: %s", ErrBuildNotFound, buildNumber)
	}

	sess := &models.Session{
		ID:             uuid.New().String(),
		WorkerID:       workerID,
		BuildNumber:    build.BuildNumber,
		NumberOfParts:  build.NumberOfParts,
		TimePerPart:    build.TimePerPart,
		StartedAt:      e.now(),
		Pauses:         []models.PauseInterval{},
		PopupResponses: []models.PopupResponse{},
	}

	if err := e.sessions.Insert(sess); err != nil {
		// Two racing starts: the partial unique index rejects the second
		// insert, so return whichever session won.
		if store.IsUniqueViolation(err) {
			return e.GetOpen(workerID)
		}
		return nil, err
	}

	e.logger.Info("session started",
		"workerId", workerID,
		"buildNumber", buildNumber,
		"sessionId", sess.ID,
	)
	return sess, nil
}

// GetOpen returns the worker's open session.
func (e *Engine) GetOpen(workerID string) (*models.Session, error) {
	sess, err := e.sessions.GetOpenByWorker(workerID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// Pause opens a new pause interval. If one is already open the call is a
// no-op, so duplicate clicks and reload races are harmless.
func (e *Engine) Pause(workerID string) (*models.Session, error) {
	sess, err := e.GetOpen(workerID)
	if err != nil {
		return nil, err
	}
	if _, err := e.sessions.OpenPause(sess.ID, e.now()); err != nil {
		return nil, err
	}
	return e.GetOpen(workerID)
}

// Resume closes the open pause interval. With no open pause the call is
// a no-op; it never fabricates an interval.
func (e *Engine) Resume(workerID string) (*models.Session, error) {
	sess, err := e.GetOpen(workerID)
	if err != nil {
		return nil, err
	}
	if _, err := e.sessions.ClosePause(sess.ID, e.now()); err != nil {
		return nil, err
	}
	return e.GetOpen(workerID)
}

// RecordDefects overwrites the defect count. Negative input clamps to 0
// rather than erroring, keeping the UI forgiving. Last caller wins.
func (e *Engine) RecordDefects(workerID string, defects int) (*models.Session, error) {
	if defects < 0 {
		defects = 0
	}
	sess, err := e.GetOpen(workerID)
	if err != nil {
		return nil, err
	}
	ok, err := e.sessions.SetDefects(sess.ID, defects)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveSession
	}
	return e.GetOpen(workerID)
}

// RecordPopupResponse appends a time-up prompt response to the session's
// popup log. It never submits the session, not even for a timed-out
// response; finalization is a separate explicit call so the two can be
// retried independently.
func (e *Engine) RecordPopupResponse(workerID string, kind models.PopupKind) (*models.Session, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: popup response %q", ErrInvalidArgument, kind)
	}
	sess, err := e.GetOpen(workerID)
	if err != nil {
		return nil, err
	}
	ok, err := e.sessions.AppendPopup(sess.ID, kind, e.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveSession
	}
	return e.GetOpen(workerID)
}

// Submit finalizes the session: computes the frozen active/inactive
// totals, stores the reported part count (nil stays nil), and writes the
// submission. The session is terminal afterwards; any further operation
// for the worker fails with ErrNoActiveSession.
func (e *Engine) Submit(workerID string, totalParts *int, auto bool) (*models.Session, error) {
	sess, err := e.GetOpen(workerID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	paused := sess.PausedDuration(now)
	activeSeconds := sess.ActiveSeconds(now)
	inactiveSeconds := int64(paused / time.Second)

	ok, err := e.sessions.Finalize(sess.ID, totalParts, auto, now, activeSeconds, inactiveSeconds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveSession
	}

	e.logger.Info("session submitted",
		"workerId", workerID,
		"sessionId", sess.ID,
		"auto", auto,
		"activeSeconds", activeSeconds,
		"inactiveSeconds", inactiveSeconds,
	)
	return e.sessions.GetByID(sess.ID)
}
