package repository

import (
	"context"
	"database/sql"
	"time"

	"medsync/internal/models"
)

// DatapointStore is the local source of truth for meditation datapoints.
type DatapointStore interface {
	Datapoints() []models.Datapoint
	Append(value float64, timestamp int64, comment string)
	Exists(timestamp int64, value float64) bool
	Save() error
}

// RunRepo is the append-only audit log of sync runs.
type RunRepo interface {
	Append(ctx context.Context, run models.SyncRun) error
	List(ctx context.Context, from, to time.Time, status string) ([]models.SyncRun, error)
}

type Repository struct {
	Store DatapointStore
	Runs  RunRepo
}

// NewRepository loads the datapoint file store (creating it on first run)
// and wires the sqlite-backed run history.
func NewRepository(db *sql.DB, storePath string) (*Repository, error) {
	store, err := LoadFileStore(storePath)
	if err != nil {
		return nil, err
	}
	return &Repository{
		Store: store,
		Runs:  NewRunSQLite(db),
	}, nil
}
