package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"medsync/internal/models"
)

// RunSQLite persists sync-run outcomes to the sync_runs table.
type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

// runFailures is the JSON shape of the failures column.
type runFailures struct {
	Reconcile []string `json:"reconcile,omitempty"`
	Qualify   []string `json:"qualify,omitempty"`
}

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Append inserts a run row. Missing RunID or StartedAt are filled in.
func (r *RunSQLite) Append(ctx context.Context, run models.SyncRun) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	now := time.Now().UTC()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = now
	}

	var failuresPtr *string
	if len(run.Reconcile.Failures) > 0 || len(run.Qualify.Failures) > 0 {
		if b, err := json.Marshal(runFailures{
			Reconcile: run.Reconcile.Failures,
			Qualify:   run.Qualify.Failures,
		}); err == nil {
			s := string(b)
			failuresPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, status, remote_fetched, local_count, deleted, created, scanned, skipped, recorded, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.StartedAt.UTC().Format(sqliteTimeLayout),
		run.FinishedAt.UTC().Format(sqliteTimeLayout),
		strings.ToLower(strings.TrimSpace(run.Status)),
		run.Reconcile.RemoteFetched,
		run.Reconcile.LocalCount,
		run.Reconcile.Deleted,
		run.Reconcile.Created,
		run.Qualify.Scanned,
		run.Qualify.Skipped,
		run.Qualify.Recorded,
		failuresPtr,
	)
	return err
}

// List returns runs filtered by [from, to] (inclusive, on started_at) and/or
// status, ordered ascending by start time.
func (r *RunSQLite) List(ctx context.Context, from, to time.Time, status string) ([]models.SyncRun, error) {
	var (
		conds []string
		args  []any
	)
	// Bind bounds in the same layout rows are stored with, so the TEXT
	// comparison is exact at the boundaries.
	if !from.IsZero() {
		conds = append(conds, "started_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "started_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}
	if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}

	q := `SELECT id, started_at, finished_at, status, remote_fetched, local_count, deleted, created, scanned, skipped, recorded, failures FROM sync_runs`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY started_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SyncRun, 0, 16)
	for rows.Next() {
		var run models.SyncRun
		var failuresStr sql.NullString
		if err := rows.Scan(
			&run.RunID,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Status,
			&run.Reconcile.RemoteFetched,
			&run.Reconcile.LocalCount,
			&run.Reconcile.Deleted,
			&run.Reconcile.Created,
			&run.Qualify.Scanned,
			&run.Qualify.Skipped,
			&run.Qualify.Recorded,
			&failuresStr,
		); err != nil {
			return nil, err
		}
		run.StartedAt = run.StartedAt.UTC()
		run.FinishedAt = run.FinishedAt.UTC()

		if failuresStr.Valid && failuresStr.String != "" {
			var f runFailures
			if err := json.Unmarshal([]byte(failuresStr.String), &f); err == nil {
				run.Reconcile.Failures = f.Reconcile
				run.Qualify.Failures = f.Qualify
			}
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
