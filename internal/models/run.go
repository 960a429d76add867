package models

import "time"

// Run statuses recorded in the history log.
const (
	RunStatusOK      = "ok"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// ReconcileReport is the structured outcome of one reconciliation pass.
// Per-item failures are non-fatal; they are counted and listed here instead
// of aborting the pass.
type ReconcileReport struct {
	RemoteFetched int      `json:"remote_fetched"`
	LocalCount    int      `json:"local_count"`
	Deleted       int      `json:"deleted"`
	Created       int      `json:"created"`
	Failures      []string `json:"failures,omitempty"`
}

// QualifyReport is the structured outcome of one qualification pass over the
// source goal.
type QualifyReport struct {
	Scanned  int      `json:"scanned"`
	Skipped  int      `json:"skipped"` // marker present but time unparseable
	Recorded int      `json:"recorded"`
	Failures []string `json:"failures,omitempty"`
}

// Failed reports whether the pass had any per-item failures.
func (r ReconcileReport) Failed() bool { return len(r.Failures) > 0 }

// Failed reports whether the pass had any per-item failures.
func (r QualifyReport) Failed() bool { return len(r.Failures) > 0 }

// SyncRun is the audit record of one full sync run: reconciliation of the
// target goal followed by qualification of the source goal.
type SyncRun struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Status     string          `json:"status"` // ok | partial | failed
	Reconcile  ReconcileReport `json:"reconcile"`
	Qualify    QualifyReport   `json:"qualify"`
}
