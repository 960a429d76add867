package service

import (
	"context"
	"fmt"

	"medsync/internal/logger"
	"medsync/internal/models"
	"medsync/internal/repository"
)

// ReconcileService makes a remote goal's datapoint set match the local store
// by minimal create/delete operations. The local store is ground truth and is
// never modified here.
type ReconcileService struct {
	client GoalClient
	store  repository.DatapointStore
	log    *logger.Logger
}

func NewReconcileService(client GoalClient, store repository.DatapointStore, log *logger.Logger) *ReconcileService {
	return &ReconcileService{client: client, store: store, log: log}
}

// Reconcile computes the symmetric difference between remote and local
// datapoints keyed by (timestamp, value): remote-only records are deleted
// remotely, local-only records are created remotely. Duplicate keys collapse;
// only the first record per key (original ordering) is acted on. A fetch
// failure keeps whatever pages were accumulated and continues.
func (s *ReconcileService) Reconcile(ctx context.Context, goal string) models.ReconcileReport {
	var rep models.ReconcileReport

	remote, err := s.client.FetchAll(ctx, goal)
	if err != nil {
		rep.Failures = append(rep.Failures, fmt.Sprintf("fetch %s: %v", goal, err))
		if s.log != nil {
			s.log.Warnw("remote fetch incomplete, reconciling with partial data", "goal", goal, "fetched", len(remote), "err", err)
		}
	}
	local := s.store.Datapoints()
	rep.RemoteFetched = len(remote)
	rep.LocalCount = len(local)

	remoteSet := keySet(remote)
	localSet := keySet(local)

	// Delete remote records that have no local counterpart.
	handled := make(map[models.DatapointKey]struct{})
	for _, dp := range remote {
		k := dp.Key()
		if _, ok := localSet[k]; ok {
			continue
		}
		if _, done := handled[k]; done {
			continue
		}
		handled[k] = struct{}{}
		if err := s.client.Delete(ctx, goal, dp.ID); err != nil {
			rep.Failures = append(rep.Failures, fmt.Sprintf("delete %s (ts=%d value=%g): %v", dp.ID, dp.Timestamp, dp.Value, err))
			continue
		}
		rep.Deleted++
	}

	// Create local records missing remotely, carrying the local comment.
	handled = make(map[models.DatapointKey]struct{})
	for _, dp := range local {
		k := dp.Key()
		if _, ok := remoteSet[k]; ok {
			continue
		}
		if _, done := handled[k]; done {
			continue
		}
		handled[k] = struct{}{}
		if err := s.client.Create(ctx, goal, dp.Value, dp.Timestamp, dp.Comment); err != nil {
			rep.Failures = append(rep.Failures, fmt.Sprintf("create (ts=%d value=%g): %v", dp.Timestamp, dp.Value, err))
			continue
		}
		rep.Created++
	}

	if s.log != nil {
		s.log.Infow("reconcile complete", "goal", goal,
			"deleted", rep.Deleted, "created", rep.Created, "failures", len(rep.Failures))
	}
	return rep
}

func keySet(dps []models.Datapoint) map[models.DatapointKey]struct{} {
	set := make(map[models.DatapointKey]struct{}, len(dps))
	for _, dp := range dps {
		set[dp.Key()] = struct{}{}
	}
	return set
}
