package service

import (
	"context"
	"time"

	"medsync/internal/config"
	"medsync/internal/logger"
	"medsync/internal/models"
	"medsync/internal/repository"
)

// GoalClient is the remote datapoint API surface the services consume.
type GoalClient interface {
	FetchAll(ctx context.Context, goal string) ([]models.Datapoint, error)
	Create(ctx context.Context, goal string, value float64, timestamp int64, comment string) error
	Delete(ctx context.Context, goal, id string) error
}

// Reconciler applies the local store as ground truth onto a remote goal.
// Per-item failures are carried in the report, never returned as errors;
// one bad datapoint must not abort the batch.
type Reconciler interface {
	Reconcile(ctx context.Context, goal string) models.ReconcileReport
}

// Qualifier scans the source goal for qualifying early meditations and
// records at most one derived datapoint per calendar day.
type Qualifier interface {
	Qualify(ctx context.Context) models.QualifyReport
}

// Runner executes one full sync run and records it in the history log.
type Runner interface {
	Run(ctx context.Context) (models.SyncRun, error)
}

// RunFilter narrows a history query.
type RunFilter struct {
	From   time.Time
	To     time.Time
	Status string
}

// History exposes read access to recorded sync runs.
type History interface {
	List(ctx context.Context, f RunFilter) ([]models.SyncRun, error)
}

// Service aggregates all sub-services.
type Service struct {
	Reconciler
	Qualifier
	Runner
	History
}

// NewService wires the repository layer and remote client into concrete
// services.
func NewService(cfg *config.Config, client GoalClient, repos *repository.Repository, log *logger.Logger) *Service {
	rec := NewReconcileService(client, repos.Store, log)
	qual := NewQualifyService(cfg, client, repos.Store, log)
	return &Service{
		Reconciler: rec,
		Qualifier:  qual,
		Runner:     NewRunService(cfg, rec, qual, repos, log),
		History:    NewHistoryService(repos.Runs),
	}
}
