// Package notifier holds the time-up prompt workflow for an open session.
//
// The workflow runs on the client side of the engine: its timers are
// ephemeral and its only durable state is two anchor timestamps, so a
// client reconnecting mid-window re-derives the same deadlines instead of
// restarting them. There is no server-side timer; a client that vanishes
// mid-window simply never reports the timeout and the session stays open
// until an explicit submit.
package notifier

import (
	"fmt"
	"time"

	"github.com/buildline/worktrack/internal/models"
)

// State is the workflow position for one open session.
type State string

const (
	// StateRunning counts down the remaining work time. A pending
	// reminder also waits here.
	StateRunning State = "running"
	// StateTimeUp is the transient moment the countdown reaches zero;
	// Evaluate passes through it when opening a prompt.
	StateTimeUp State = "time_up"
	// StateAwaitingResponse means a prompt is on screen with its own
	// countdown window.
	StateAwaitingResponse State = "awaiting_response"
	// StateTerminated means the session was submitted (manually or by
	// timeout) and nothing further is scheduled.
	StateTerminated State = "terminated"
)

// Action tells the caller what to do after an Evaluate tick.
type Action int

const (
	// ActionNone requires nothing.
	ActionNone Action = iota
	// ActionOpenPrompt means the time-up prompt should be shown.
	ActionOpenPrompt
	// ActionAutoSubmit means the prompt window expired: call
	// RecordPopupResponse(timed-out) followed by Submit(auto=true).
	ActionAutoSubmit
)

// Config holds the prompt window and reminder interval.
type Config struct {
	// PopupWindow is how long the prompt waits for a response before the
	// session is auto-submitted.
	PopupWindow time.Duration
	// ReminderInterval is how long after a confirmed/declined response
	// the prompt re-arms.
	ReminderInterval time.Duration
}

// DefaultConfig matches the production values: ten minutes for both the
// prompt window and the reminder interval.
func DefaultConfig() Config {
	return Config{
		PopupWindow:      600 * time.Second,
		ReminderInterval: 600 * time.Second,
	}
}

// Anchors is the small persisted footprint of the workflow. A client
// stores it across reloads and passes it back to Restore.
type Anchors struct {
	PromptStartedAt *time.Time `json:"promptStartedAt,omitempty"`
	NextPromptAt    *time.Time `json:"nextPromptAt,omitempty"`
}

// Workflow drives the confirm-or-auto-submit cycle for one session.
// It is not safe for concurrent use; each session has its own.
type Workflow struct {
	session *models.Session
	cfg     Config
	state   State

	promptStartedAt *time.Time
	nextPromptAt    *time.Time
}

// New creates a workflow for a freshly loaded session with no persisted
// anchors.
func New(sess *models.Session, cfg Config) *Workflow {
	w := &Workflow{session: sess, cfg: cfg, state: StateRunning}
	if !sess.Open() {
		w.state = StateTerminated
	}
	return w
}

// Restore rebuilds the workflow from persisted anchors after a client
// reload. A prompt window that was live keeps its original deadline; one
// that already elapsed yields ActionAutoSubmit on the next Evaluate; a
// reminder due in the past fires on the next Evaluate too.
func Restore(sess *models.Session, cfg Config, anchors Anchors) *Workflow {
	w := New(sess, cfg)
	if w.state == StateTerminated {
		return w
	}
	if anchors.PromptStartedAt != nil {
		at := *anchors.PromptStartedAt
		w.promptStartedAt = &at
		w.state = StateAwaitingResponse
		return w
	}
	if anchors.NextPromptAt != nil {
		at := *anchors.NextPromptAt
		w.nextPromptAt = &at
	}
	return w
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	return w.state
}

// Anchors returns the timestamps a client must persist to survive a
// reload.
func (w *Workflow) Anchors() Anchors {
	return Anchors{PromptStartedAt: w.promptStartedAt, NextPromptAt: w.nextPromptAt}
}

// RemainingSeconds is the work time left on the countdown: the build's
// target duration minus active elapsed seconds. An open pause halts it.
// Negative values mean the worker is past the allotted time.
func (w *Workflow) RemainingSeconds(now time.Time) int64 {
	return w.session.TargetSeconds() - w.session.ActiveSeconds(now)
}

// PromptRemaining is the time left in the open prompt window, zero when
// no prompt is open or the window has elapsed.
func (w *Workflow) PromptRemaining(now time.Time) time.Duration {
	if w.state != StateAwaitingResponse || w.promptStartedAt == nil {
		return 0
	}
	rem := w.promptStartedAt.Add(w.cfg.PopupWindow).Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}

// Evaluate advances the workflow to now and returns the action the
// caller must take. It is safe to call on every tick.
func (w *Workflow) Evaluate(now time.Time) Action {
	switch w.state {
	case StateTerminated:
		return ActionNone

	case StateAwaitingResponse:
		if w.promptStartedAt != nil && !now.Before(w.promptStartedAt.Add(w.cfg.PopupWindow)) {
			w.state = StateTerminated
			return ActionAutoSubmit
		}
		return ActionNone

	case StateRunning, StateTimeUp:
		if w.nextPromptAt != nil {
			// A reminder is armed; the countdown already hit zero in a
			// previous cycle.
			if now.Before(*w.nextPromptAt) {
				return ActionNone
			}
			return w.openPrompt(now)
		}
		if w.RemainingSeconds(now) <= 0 {
			return w.openPrompt(now)
		}
		return ActionNone
	}
	return ActionNone
}

func (w *Workflow) openPrompt(now time.Time) Action {
	w.state = StateTimeUp
	at := now
	w.promptStartedAt = &at
	w.nextPromptAt = nil
	w.state = StateAwaitingResponse
	return ActionOpenPrompt
}

// RespondPrompt records the worker's explicit answer to an open prompt.
// Confirmed and declined are treated identically: the prompt is
// dismissed and re-arms after the reminder interval, repeating until a
// timeout or a manual submit. With no prompt open the call is a no-op.
func (w *Workflow) RespondPrompt(kind models.PopupKind, now time.Time) error {
	if !kind.IsValid() {
		return fmt.Errorf("invalid popup response %q", kind)
	}
	if w.state != StateAwaitingResponse {
		return nil
	}
	if kind == models.PopupTimedOut {
		w.state = StateTerminated
		w.promptStartedAt = nil
		w.nextPromptAt = nil
		return nil
	}
	next := now.Add(w.cfg.ReminderInterval)
	w.promptStartedAt = nil
	w.nextPromptAt = &next
	w.state = StateRunning
	return nil
}

// Terminate cancels all pending prompts and reminders. Called when the
// worker submits manually from any state.
func (w *Workflow) Terminate() {
	w.state = StateTerminated
	w.promptStartedAt = nil
	w.nextPromptAt = nil
}
