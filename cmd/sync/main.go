// The sync binary executes one full sync run and exits: reconcile the target
// goal against the local source-of-truth file, derive qualifying early
// meditations from the source goal, and record the outcome in the run
// history. Intended to be invoked from a scheduler.
package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"medsync/internal/beeminder"
	"medsync/internal/config"
	"medsync/internal/logger"
	"medsync/internal/models"
	"medsync/internal/repository"
	"medsync/internal/repository/db"
	"medsync/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("invalid configuration", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	histDB, err := openHistoryDB(cfg)
	if err != nil {
		log.Fatalw("failed to init run history db", "err", err)
	}
	defer func() {
		if cerr := histDB.Close(); cerr != nil {
			log.Errorw("failed to close run history db", "err", cerr)
		}
	}()

	repos, err := repository.NewRepository(histDB, cfg.StorePath)
	if err != nil {
		log.Fatalw("failed to load datapoint store", "path", cfg.StorePath, "err", err)
	}

	client := beeminder.New(cfg.Username, cfg.AuthToken, cfg.HTTPTimeout, log)
	services := service.NewService(cfg, client, repos, log)

	run, err := services.Runner.Run(context.Background())
	if err != nil {
		log.Fatalw("sync run failed", "run_id", run.RunID, "err", err)
	}
	if run.Status == models.RunStatusPartial {
		log.Warnw("sync run completed with failures", "run_id", run.RunID,
			"reconcile_failures", run.Reconcile.Failures, "qualify_failures", run.Qualify.Failures)
		os.Exit(1)
	}
}

// openHistoryDB ensures the parent directory exists before opening sqlite.
func openHistoryDB(cfg *config.Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.HistoryDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return db.InitDB(cfg.HistoryDBPath)
}
