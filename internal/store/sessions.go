package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/buildline/worktrack/internal/models"
)

// SessionStore handles Session persistence on SQLite.
//
// Every mutation is a single conditional statement guarded on
// submitted_at IS NULL, so a submitted session can
// never be modified even when two callers race. Combined with the
// one-writer connection pool this gives the atomic read-modify-write the
// lifecycle engine relies on.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new session store.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Insert persists a freshly created session. Fails with a unique
// violation (see IsUniqueViolation) if the worker already has an open
// session.
func (s *SessionStore) Insert(sess *models.Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, worker_id, build_number, number_of_parts, time_per_part, started_at, defects)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.WorkerID, sess.BuildNumber, sess.NumberOfParts, sess.TimePerPart,
		sess.StartedAt.UnixMilli(), sess.Defects)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetOpenByWorker fetches the worker's open (not yet submitted) session,
// including its pause and popup logs. Returns nil when none exists.
func (s *SessionStore) GetOpenByWorker(workerID string) (*models.Session, error) {
	return s.getOne(`
		SELECT id, worker_id, build_number, number_of_parts, time_per_part, started_at,
		       defects, total_parts, submitted_at, submitted_auto,
		       total_active_seconds, total_inactive_seconds
		FROM sessions WHERE worker_id = ? AND submitted_at IS NULL
	`, workerID)
}

// GetByID fetches a session by ID regardless of submission state.
// Returns nil when it does not exist.
func (s *SessionStore) GetByID(id string) (*models.Session, error) {
	return s.getOne(`
		SELECT id, worker_id, build_number, number_of_parts, time_per_part, started_at,
		       defects, total_parts, submitted_at, submitted_auto,
		       total_active_seconds, total_inactive_seconds
		FROM sessions WHERE id = ?
	`, id)
}

func (s *SessionStore) getOne(query string, arg any) (*models.Session, error) {
	var (
		sess          models.Session
		startedAt     int64
		totalParts    sql.NullInt64
		submittedAt   sql.NullInt64
		submittedAuto bool
		activeSec     sql.NullInt64
		inactiveSec   sql.NullInt64
	)

	err := s.db.QueryRow(query, arg).Scan(
		&sess.ID, &sess.WorkerID, &sess.BuildNumber, &sess.NumberOfParts, &sess.TimePerPart,
		&startedAt, &sess.Defects, &totalParts, &submittedAt, &submittedAuto,
		&activeSec, &inactiveSec,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.StartedAt = time.UnixMilli(startedAt)
	if totalParts.Valid {
		n := int(totalParts.Int64)
		sess.TotalParts = &n
	}
	if submittedAt.Valid {
		sess.Submission = &models.Submission{
			SubmittedAt: time.UnixMilli(submittedAt.Int64),
			Auto:        submittedAuto,
		}
	}
	if activeSec.Valid {
		v := activeSec.Int64
		sess.TotalActiveSeconds = &v
	}
	if inactiveSec.Valid {
		v := inactiveSec.Int64
		sess.TotalInactiveSeconds = &v
	}

	if err := s.loadPauses(&sess); err != nil {
		return nil, err
	}
	if err := s.loadPopups(&sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) loadPauses(sess *models.Session) error {
	// Empty rather than nil so the session serializes with [].
	sess.Pauses = []models.PauseInterval{}

	rows, err := s.db.Query(`
		SELECT started_at, ended_at FROM session_pauses
		WHERE session_id = ? ORDER BY id
	`, sess.ID)
	if err != nil {
		return fmt.Errorf("load pauses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var start int64
		var end sql.NullInt64
		if err := rows.Scan(&start, &end); err != nil {
			return fmt.Errorf("scan pause: %w", err)
		}
		p := models.PauseInterval{Start: time.UnixMilli(start)}
		if end.Valid {
			e := time.UnixMilli(end.Int64)
			p.End = &e
		}
		sess.Pauses = append(sess.Pauses, p)
	}
	return rows.Err()
}

func (s *SessionStore) loadPopups(sess *models.Session) error {
	sess.PopupResponses = []models.PopupResponse{}

	rows, err := s.db.Query(`
		SELECT kind, responded_at FROM session_popups
		WHERE session_id = ? ORDER BY id
	`, sess.ID)
	if err != nil {
		return fmt.Errorf("load popups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var at int64
		if err := rows.Scan(&kind, &at); err != nil {
			return fmt.Errorf("scan popup: %w", err)
		}
		sess.PopupResponses = append(sess.PopupResponses, models.PopupResponse{
			At:   time.UnixMilli(at),
			Kind: models.PopupKind(kind),
		})
	}
	return rows.Err()
}

// OpenPause records a new open pause interval unless one is already open.
// Returns true if a new interval was created. The guard clauses make the
// call idempotent and a no-op on a submitted session.
func (s *SessionStore) OpenPause(sessionID string, at time.Time) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO session_pauses (session_id, started_at)
		SELECT ?, ?
		WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ? AND submitted_at IS NULL)
		  AND NOT EXISTS (SELECT 1 FROM session_pauses WHERE session_id = ? AND ended_at IS NULL)
	`, sessionID, at.UnixMilli(), sessionID, sessionID)
	if err != nil {
		return false, fmt.Errorf("open pause: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ClosePause ends the open pause interval, if any. Returns true if an
// interval was closed.
func (s *SessionStore) ClosePause(sessionID string, at time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE session_pauses SET ended_at = ?
		WHERE session_id = ? AND ended_at IS NULL
	`, at.UnixMilli(), sessionID)
	if err != nil {
		return false, fmt.Errorf("close pause: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetDefects overwrites the defect count. Returns false when the session
// is no longer open.
func (s *SessionStore) SetDefects(sessionID string, defects int) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE sessions SET defects = ?
		WHERE id = ? AND submitted_at IS NULL
	`, defects, sessionID)
	if err != nil {
		return false, fmt.Errorf("set defects: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AppendPopup appends a popup response entry. Returns false when the
// session is no longer open.
func (s *SessionStore) AppendPopup(sessionID string, kind models.PopupKind, at time.Time) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO session_popups (session_id, kind, responded_at)
		SELECT ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ? AND submitted_at IS NULL)
	`, sessionID, string(kind), at.UnixMilli(), sessionID)
	if err != nil {
		return false, fmt.Errorf("append popup: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Finalize writes the submission and frozen totals. The submitted_at
// guard means exactly one of two racing submits wins; the loser sees
// false. A still-open pause interval is left open on purpose: the totals
// already account for it up to the submit instant.
func (s *SessionStore) Finalize(sessionID string, totalParts *int, auto bool, at time.Time, activeSeconds, inactiveSeconds int64) (bool, error) {
	var parts sql.NullInt64
	if totalParts != nil {
		parts = sql.NullInt64{Int64: int64(*totalParts), Valid: true}
	}

	res, err := s.db.Exec(`
		UPDATE sessions
		SET total_parts = ?, submitted_at = ?, submitted_auto = ?,
		    total_active_seconds = ?, total_inactive_seconds = ?
		WHERE id = ? AND submitted_at IS NULL
	`, parts, at.UnixMilli(), auto, activeSeconds, inactiveSeconds, sessionID)
	if err != nil {
		return false, fmt.Errorf("finalize session: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
