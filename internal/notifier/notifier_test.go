package notifier

import (
	"testing"
	"time"

	"github.com/buildline/worktrack/internal/models"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// testSession targets 120 seconds of work (2 parts x 1 minute).
func testSession() *models.Session {
	return &models.Session{
		ID:            "sess-1",
		WorkerID:      "worker-1",
		BuildNumber:   "123456",
		NumberOfParts: 2,
		TimePerPart:   1,
		StartedAt:     t0,
	}
}

func testConfig() Config {
	return Config{PopupWindow: 600 * time.Second, ReminderInterval: 600 * time.Second}
}

func TestCountdownOpensPrompt(t *testing.T) {
	w := New(testSession(), testConfig())

	if got := w.Evaluate(t0.Add(119 * time.Second)); got != ActionNone {
		t.Fatalf("expected no action before time up, got %v", got)
	}
	if w.State() != StateRunning {
		t.Fatalf("expected running, got %s", w.State())
	}

	if got := w.Evaluate(t0.Add(120 * time.Second)); got != ActionOpenPrompt {
		t.Fatalf("expected open prompt at time up, got %v", got)
	}
	if w.State() != StateAwaitingResponse {
		t.Fatalf("expected awaiting response, got %s", w.State())
	}
	if w.Anchors().PromptStartedAt == nil {
		t.Fatal("expected prompt anchor to be set")
	}
}

func TestRemainingSeconds(t *testing.T) {
	w := New(testSession(), testConfig())

	if got := w.RemainingSeconds(t0.Add(30 * time.Second)); got != 90 {
		t.Errorf("expected 90s remaining, got %d", got)
	}
	if got := w.RemainingSeconds(t0.Add(150 * time.Second)); got != -30 {
		t.Errorf("expected -30s remaining past the target, got %d", got)
	}
}

func TestOpenPauseHaltsCountdown(t *testing.T) {
	sess := testSession()
	pauseStart := t0.Add(60 * time.Second)
	sess.Pauses = []models.PauseInterval{{Start: pauseStart}}
	w := New(sess, testConfig())

	// Remaining time stays frozen at 60s while the pause is open.
	for _, at := range []time.Duration{60, 90, 300} {
		if got := w.RemainingSeconds(t0.Add(at * time.Second)); got != 60 {
			t.Errorf("at +%ds: expected 60s remaining, got %d", at, got)
		}
	}
	if got := w.Evaluate(t0.Add(300 * time.Second)); got != ActionNone {
		t.Errorf("expected no action while paused, got %v", got)
	}
}

func TestPromptWindowTimesOut(t *testing.T) {
	w := New(testSession(), testConfig())

	promptAt := t0.Add(120 * time.Second)
	if got := w.Evaluate(promptAt); got != ActionOpenPrompt {
		t.Fatalf("expected open prompt, got %v", got)
	}

	if got := w.Evaluate(promptAt.Add(599 * time.Second)); got != ActionNone {
		t.Fatalf("expected no action inside window, got %v", got)
	}
	if got := w.Evaluate(promptAt.Add(600 * time.Second)); got != ActionAutoSubmit {
		t.Fatalf("expected auto submit at window end, got %v", got)
	}
	if w.State() != StateTerminated {
		t.Fatalf("expected terminated, got %s", w.State())
	}
	if got := w.Evaluate(promptAt.Add(700 * time.Second)); got != ActionNone {
		t.Fatalf("terminated workflow must stay silent, got %v", got)
	}
}

func TestConfirmedRearmsReminder(t *testing.T) {
	w := New(testSession(), testConfig())

	promptAt := t0.Add(120 * time.Second)
	w.Evaluate(promptAt)

	respondAt := promptAt.Add(30 * time.Second)
	if err := w.RespondPrompt(models.PopupConfirmed, respondAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.State() != StateRunning {
		t.Fatalf("expected running after response, got %s", w.State())
	}

	anchors := w.Anchors()
	if anchors.PromptStartedAt != nil {
		t.Error("expected prompt anchor cleared")
	}
	if anchors.NextPromptAt == nil || !anchors.NextPromptAt.Equal(respondAt.Add(600*time.Second)) {
		t.Fatalf("expected reminder at +600s, got %v", anchors.NextPromptAt)
	}

	if got := w.Evaluate(respondAt.Add(599 * time.Second)); got != ActionNone {
		t.Fatalf("expected no action before reminder, got %v", got)
	}
	if got := w.Evaluate(respondAt.Add(600 * time.Second)); got != ActionOpenPrompt {
		t.Fatalf("expected prompt to re-open at reminder, got %v", got)
	}
}

func TestDeclinedBehavesLikeConfirmed(t *testing.T) {
	w := New(testSession(), testConfig())
	promptAt := t0.Add(120 * time.Second)
	w.Evaluate(promptAt)

	if err := w.RespondPrompt(models.PopupDeclined, promptAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.State() != StateRunning {
		t.Fatalf("expected running after declined, got %s", w.State())
	}
	if w.Anchors().NextPromptAt == nil {
		t.Fatal("expected reminder armed after declined")
	}
}

func TestRepeatedReminderCycle(t *testing.T) {
	w := New(testSession(), testConfig())
	at := t0.Add(120 * time.Second)

	for cycle := 0; cycle < 3; cycle++ {
		if got := w.Evaluate(at); got != ActionOpenPrompt {
			t.Fatalf("cycle %d: expected open prompt, got %v", cycle, got)
		}
		if err := w.RespondPrompt(models.PopupConfirmed, at); err != nil {
			t.Fatalf("cycle %d: %v", cycle, err)
		}
		at = at.Add(600 * time.Second)
	}
}

func TestRespondPromptRejectsUnknownKind(t *testing.T) {
	w := New(testSession(), testConfig())
	w.Evaluate(t0.Add(120 * time.Second))

	if err := w.RespondPrompt("maybe", t0.Add(121*time.Second)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRespondWithoutPromptIsNoOp(t *testing.T) {
	w := New(testSession(), testConfig())

	if err := w.RespondPrompt(models.PopupConfirmed, t0.Add(10*time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.State() != StateRunning {
		t.Fatalf("expected still running, got %s", w.State())
	}
	if w.Anchors().NextPromptAt != nil {
		t.Error("no-op response must not arm a reminder")
	}
}

func TestTerminateCancelsEverything(t *testing.T) {
	w := New(testSession(), testConfig())
	w.Evaluate(t0.Add(120 * time.Second))

	w.Terminate()
	if w.State() != StateTerminated {
		t.Fatalf("expected terminated, got %s", w.State())
	}
	anchors := w.Anchors()
	if anchors.PromptStartedAt != nil || anchors.NextPromptAt != nil {
		t.Error("expected anchors cleared after terminate")
	}
	if got := w.Evaluate(t0.Add(time.Hour)); got != ActionNone {
		t.Fatalf("expected no action after terminate, got %v", got)
	}
}

func TestRestoreLiveWindowKeepsDeadline(t *testing.T) {
	promptAt := t0.Add(120 * time.Second)
	anchors := Anchors{PromptStartedAt: &promptAt}

	// Reload 200s into the 600s window: the deadline must not restart.
	w := Restore(testSession(), testConfig(), anchors)
	if w.State() != StateAwaitingResponse {
		t.Fatalf("expected awaiting response, got %s", w.State())
	}
	if got := w.PromptRemaining(promptAt.Add(200 * time.Second)); got != 400*time.Second {
		t.Fatalf("expected 400s left in window, got %v", got)
	}
	if got := w.Evaluate(promptAt.Add(600 * time.Second)); got != ActionAutoSubmit {
		t.Fatalf("expected original deadline to hold, got %v", got)
	}
}

func TestRestoreElapsedWindowAutoSubmits(t *testing.T) {
	promptAt := t0.Add(120 * time.Second)
	anchors := Anchors{PromptStartedAt: &promptAt}

	now := promptAt.Add(900 * time.Second)
	w := Restore(testSession(), testConfig(), anchors)
	if got := w.Evaluate(now); got != ActionAutoSubmit {
		t.Fatalf("expected immediate auto submit after elapsed window, got %v", got)
	}
}

func TestRestorePastReminderFiresImmediately(t *testing.T) {
	nextAt := t0.Add(1000 * time.Second)
	anchors := Anchors{NextPromptAt: &nextAt}

	now := nextAt.Add(50 * time.Second)
	w := Restore(testSession(), testConfig(), anchors)
	if got := w.Evaluate(now); got != ActionOpenPrompt {
		t.Fatalf("expected overdue reminder to fire, got %v", got)
	}
}

func TestRestoreSubmittedSessionIsTerminated(t *testing.T) {
	sess := testSession()
	sess.Submission = &models.Submission{SubmittedAt: t0.Add(200 * time.Second)}
	promptAt := t0.Add(120 * time.Second)

	w := Restore(sess, testConfig(), Anchors{PromptStartedAt: &promptAt})
	if w.State() != StateTerminated {
		t.Fatalf("expected terminated for submitted session, got %s", w.State())
	}
}
