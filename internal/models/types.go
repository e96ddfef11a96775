package models

import (
	"math"
	"time"
)

// PopupKind classifies how a worker answered (or failed to answer) the
// time-up prompt.
type PopupKind string

const (
	PopupConfirmed PopupKind = "confirmed"
	PopupDeclined  PopupKind = "declined"
	PopupTimedOut  PopupKind = "timed-out"
)

var validPopupKinds = map[PopupKind]bool{
	PopupConfirmed: true,
	PopupDeclined:  true,
	PopupTimedOut:  true,
}

func (k PopupKind) IsValid() bool {
	return validPopupKinds[k]
}

// Build is a unit of production work. Sessions copy its fields at creation
// so later catalog edits never affect an in-flight session.
type Build struct {
	BuildNumber   string  `json:"buildNumber"`
	NumberOfParts int     `json:"numberOfParts"`
	TimePerPart   float64 `json:"timePerPart"` // minutes per part
}

// PauseInterval is a recorded span during which elapsed time does not count
// as active work. End is nil while the pause is still open.
type PauseInterval struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end"`
}

// PopupResponse is one append-only entry in the time-up prompt log.
type PopupResponse struct {
	At   time.Time `json:"at"`
	Kind PopupKind `json:"kind"`
}

// Submission marks a session terminal. It is set exactly once.
type Submission struct {
	SubmittedAt time.Time `json:"submittedAt"`
	Auto        bool      `json:"auto"`
}

// Session is one worker's timed attempt at a build, from start to
// submission. At most one session per worker may lack a Submission.
type Session struct {
	ID            string          `json:"id"`
	WorkerID      string          `json:"workerId"`
	BuildNumber   string          `json:"buildNumber"`
	NumberOfParts int             `json:"numberOfParts"`
	TimePerPart   float64         `json:"timePerPart"`
	StartedAt     time.Time       `json:"startedAt"`
	Pauses        []PauseInterval `json:"pauses"`
	Defects       int             `json:"defects"`
	// TotalParts stays nil when the worker never reported a count; nil is
	// distinct from an explicit zero.
	TotalParts     *int            `json:"totalParts"`
	PopupResponses []PopupResponse `json:"popupResponses"`
	Submission     *Submission     `json:"submission,omitempty"`
	// Computed once at submit time and frozen.
	TotalActiveSeconds   *int64 `json:"totalActiveSeconds,omitempty"`
	TotalInactiveSeconds *int64 `json:"totalInactiveSeconds,omitempty"`
}

// Open reports whether the session has not yet been submitted.
func (s *Session) Open() bool {
	return s.Submission == nil
}

// OpenPause returns the currently open pause interval, or nil.
func (s *Session) OpenPause() *PauseInterval {
	if len(s.Pauses) == 0 {
		return nil
	}
	last := &s.Pauses[len(s.Pauses)-1]
	if last.End == nil {
		return last
	}
	return nil
}

// TargetSeconds is the allotted work time for the session's build.
func (s *Session) TargetSeconds() int64 {
	return int64(math.Round(float64(s.NumberOfParts) * s.TimePerPart * 60))
}

// PausedDuration sums all pause intervals up to now. A still-open pause
// counts from its start to now.
func (s *Session) PausedDuration(now time.Time) time.Duration {
	var total time.Duration
	for _, p := range s.Pauses {
		if p.End != nil {
			total += p.End.Sub(p.Start)
		} else {
			total += now.Sub(p.Start)
		}
	}
	return total
}

// ActiveSeconds is the wall-clock time since start minus paused time,
// floored to whole seconds and never negative. Submit and the time-up
// countdown both use this formula.
func (s *Session) ActiveSeconds(now time.Time) int64 {
	active := now.Sub(s.StartedAt) - s.PausedDuration(now)
	if active < 0 {
		return 0
	}
	return int64(active / time.Second)
}

// StartSessionRequest is the payload for POST /sessions/start.
type StartSessionRequest struct {
	WorkerID    string `json:"workerId"`
	BuildNumber string `json:"buildNumber"`
}

// WorkerRequest is the payload for pause/resume calls.
type WorkerRequest struct {
	WorkerID string `json:"workerId"`
}

// DefectsRequest is the payload for POST /sessions/defects. The count
// overwrites; it does not increment.
type DefectsRequest struct {
	WorkerID string `json:"workerId"`
	Defects  int    `json:"defects"`
}

// PopupRequest is the payload for POST /sessions/popup.
type PopupRequest struct {
	WorkerID string    `json:"workerId"`
	Response PopupKind `json:"response"`
}

// SubmitRequest is the payload for POST /sessions/submit.
type SubmitRequest struct {
	WorkerID   string `json:"workerId"`
	TotalParts *int   `json:"totalParts"`
	Auto       bool   `json:"auto"`
}

// SubmitResponse is returned from POST /sessions/submit.
type SubmitResponse struct {
	Message string   `json:"message"`
	Session *Session `json:"session"`
}

// ConfigResponse is returned from GET /config. Clients derive their
// time-up workflow deadlines from these values.
type ConfigResponse struct {
	PopupWindowSeconds   int64 `json:"popupWindowSeconds"`
	PopupReminderSeconds int64 `json:"popupReminderSeconds"`
}

// ServiceCheck reports the health of one dependency.
type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status       string       `json:"status"`
	DB           ServiceCheck `json:"db"`
	OpenSessions int          `json:"openSessions"`
	Builds       int          `json:"builds"`
}
