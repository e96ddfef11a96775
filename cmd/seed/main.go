// Command seed loads a YAML build catalog into the worktrack database.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/buildline/worktrack/internal/catalog"
	"github.com/buildline/worktrack/internal/store"
)

func main() {
	dbPath := flag.String("db", "/data/worktrack.db", "path to the worktrack SQLite database")
	catalogPath := flag.String("catalog", "builds.yaml", "path to the YAML build catalog")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := store.Open(*dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	builds, err := catalog.Load(*catalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	buildStore := store.NewBuildStore(db)
	result, err := catalog.Sync(buildStore, builds, logger)
	if err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}

	logger.Info("builds seeded", "count", result.Upserted)
}
