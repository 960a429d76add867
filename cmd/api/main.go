// The api binary serves the sync job over HTTP: a health endpoint, a manual
// trigger, and the run history.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"medsync/internal/beeminder"
	"medsync/internal/config"
	"medsync/internal/handlers"
	"medsync/internal/logger"
	"medsync/internal/repository"
	"medsync/internal/repository/db"
	"medsync/internal/server"
	"medsync/internal/service"
)

const shutdownTimeout = 10 * time.Second

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
	apiHandler := handlers.NewHandler(services, cfg.APIToken, log)

	srv := &server.Server{}
	go func() {
		log.Infow("starting http server", "port", cfg.HTTPPort)
		if err := srv.Run(cfg.HTTPPort, apiHandler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(srv, log)
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

// waitForShutdown blocks on termination signals and drains in-flight
// requests before exiting.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
