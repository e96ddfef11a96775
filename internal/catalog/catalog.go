// Package catalog loads build metadata from a YAML file and seeds it
// into the builds table. The catalog is read-only to the rest of the
// system; sessions copy build fields at creation, so re-seeding never
// touches an in-flight session.
package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/buildline/worktrack/internal/models"
	"github.com/buildline/worktrack/internal/store"
)

type fileFormat struct {
	Builds []entry `yaml:"builds"`
}

type entry struct {
	BuildNumber   string  `yaml:"buildNumber"`
	NumberOfParts int     `yaml:"numberOfParts"`
	TimePerPart   float64 `yaml:"timePerPart"`
}

// Load parses and validates the catalog file.
func Load(path string) ([]models.Build, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	builds := make([]models.Build, 0, len(f.Builds))
	for i, e := range f.Builds {
		if e.BuildNumber == "" {
			return nil, fmt.Errorf("catalog entry %d: buildNumber is required", i)
		}
		if e.NumberOfParts < 1 {
			return nil, fmt.Errorf("catalog entry %q: numberOfParts must be positive, got %d", e.BuildNumber, e.NumberOfParts)
		}
		if e.TimePerPart <= 0 {
			return nil, fmt.Errorf("catalog entry %q: timePerPart must be positive, got %g", e.BuildNumber, e.TimePerPart)
		}
		builds = append(builds, models.Build{
			BuildNumber:   e.BuildNumber,
			NumberOfParts: e.NumberOfParts,
			TimePerPart:   e.TimePerPart,
		})
	}
	return builds, nil
}

// SyncResult summarizes a catalog sync.
type SyncResult struct {
	Loaded   int
	Upserted int
}

// Sync upserts every catalog entry into the build store.
func Sync(builds *store.BuildStore, entries []models.Build, logger *slog.Logger) (*SyncResult, error) {
	result := &SyncResult{Loaded: len(entries)}
	for _, b := range entries {
		if err := builds.Upsert(&b); err != nil {
			return result, fmt.Errorf("upsert build %q: %w", b.BuildNumber, err)
		}
		result.Upserted++
	}
	logger.Info("catalog synced", "loaded", result.Loaded, "upserted", result.Upserted)
	return result, nil
}
