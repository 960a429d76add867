package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medsync/internal/config"
	"medsync/internal/logger"
	"medsync/internal/models"
	"medsync/internal/repository"
)

// RunService orchestrates one full sync: reconcile the target goal against
// the local store, qualify the source goal, save the store, and record the
// outcome in the run history.
type RunService struct {
	cfg        *config.Config
	reconciler Reconciler
	qualifier  Qualifier
	repos      *repository.Repository
	log        *logger.Logger
}

func NewRunService(cfg *config.Config, rec Reconciler, qual Qualifier, repos *repository.Repository, log *logger.Logger) *RunService {
	return &RunService{cfg: cfg, reconciler: rec, qualifier: qual, repos: repos, log: log}
}

// Run executes the two passes sequentially against the same store instance.
// The returned error covers only the final store save; per-item failures are
// carried inside the run's reports and reflected in its status.
func (s *RunService) Run(ctx context.Context) (models.SyncRun, error) {
	run := models.SyncRun{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	if s.log != nil {
		s.log.Infow("sync run started", "run_id", run.RunID,
			"target", s.cfg.TargetGoal, "source", s.cfg.SourceGoal)
	}

	run.Reconcile = s.reconciler.Reconcile(ctx, s.cfg.TargetGoal)
	run.Qualify = s.qualifier.Qualify(ctx)

	saveErr := s.repos.Store.Save()
	run.FinishedAt = time.Now().UTC()
	run.Status = runStatus(run, saveErr)

	if err := s.repos.Runs.Append(ctx, run); err != nil && s.log != nil {
		s.log.Warnw("failed to record run history", "run_id", run.RunID, "err", err)
	}
	if s.log != nil {
		s.log.Infow("sync run finished", "run_id", run.RunID, "status", run.Status)
	}
	if saveErr != nil {
		return run, fmt.Errorf("save store: %w", saveErr)
	}
	return run, nil
}

func runStatus(run models.SyncRun, saveErr error) string {
	switch {
	case saveErr != nil:
		return models.RunStatusFailed
	case run.Reconcile.Failed() || run.Qualify.Failed():
		return models.RunStatusPartial
	default:
		return models.RunStatusOK
	}
}
