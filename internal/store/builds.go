package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/buildline/worktrack/internal/models"
)

// BuildStore handles Build catalog reads and seeding on SQLite.
type BuildStore struct {
	db *DB
}

// NewBuildStore creates a new build store.
func NewBuildStore(db *DB) *BuildStore {
	return &BuildStore{db: db}
}

// GetByNumber fetches a build by its build number. Returns nil when the
// build is not in the catalog.
func (s *BuildStore) GetByNumber(buildNumber string) (*models.Build, error) {
	var b models.Build
	err := s.db.QueryRow(`
		SELECT build_number, number_of_parts, time_per_part
		FROM builds WHERE build_number = ?
	`, buildNumber).Scan(&b.BuildNumber, &b.NumberOfParts, &b.TimePerPart)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get build: %w", err)
	}
	return &b, nil
}

// Upsert inserts or updates a catalog entry. Existing sessions keep the
// build fields they copied at creation.
func (s *BuildStore) Upsert(b *models.Build) error {
	now := time.Now().UnixMilli()
	_, err := s.db.Exec(`
		INSERT INTO builds (build_number, number_of_parts, time_per_part, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(build_number) DO UPDATE SET
			number_of_parts = excluded.number_of_parts,
			time_per_part = excluded.time_per_part,
			updated_at = excluded.updated_at
	`, b.BuildNumber, b.NumberOfParts, b.TimePerPart, now, now)
	if err != nil {
		return fmt.Errorf("upsert build: %w", err)
	}
	return nil
}

// List returns all catalog entries ordered by build number.
func (s *BuildStore) List() ([]*models.Build, error) {
	rows, err := s.db.Query(`
		SELECT build_number, number_of_parts, time_per_part
		FROM builds ORDER BY build_number
	`)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var builds []*models.Build
	for rows.Next() {
		var b models.Build
		if err := rows.Scan(&b.BuildNumber, &b.NumberOfParts, &b.TimePerPart); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, &b)
	}
	return builds, rows.Err()
}
