package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"medsync/internal/models"
)

// fakeClient is an in-memory GoalClient. Create and Delete mutate the held
// goal data so reconciliation converges across runs.
type fakeClient struct {
	goals    map[string][]models.Datapoint
	fetchErr map[string]error

	createErr error
	deleteErr error

	creates []createCall
	deletes []deleteCall
	nextID  int
}

type createCall struct {
	goal      string
	value     float64
	timestamp int64
	comment   string
}

type deleteCall struct {
	goal string
	id   string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		goals:    make(map[string][]models.Datapoint),
		fetchErr: make(map[string]error),
	}
}

func (f *fakeClient) FetchAll(ctx context.Context, goal string) ([]models.Datapoint, error) {
	out := make([]models.Datapoint, len(f.goals[goal]))
	copy(out, f.goals[goal])
	return out, f.fetchErr[goal]
}

func (f *fakeClient) Create(ctx context.Context, goal string, value float64, timestamp int64, comment string) error {
	f.creates = append(f.creates, createCall{goal: goal, value: value, timestamp: timestamp, comment: comment})
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	f.goals[goal] = append(f.goals[goal], models.Datapoint{
		Value:     value,
		Timestamp: timestamp,
		Comment:   comment,
		ID:        "remote_" + strconv.Itoa(f.nextID),
	})
	return nil
}

func (f *fakeClient) Delete(ctx context.Context, goal, id string) error {
	f.deletes = append(f.deletes, deleteCall{goal: goal, id: id})
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.goals[goal][:0]
	for _, dp := range f.goals[goal] {
		if dp.ID != id {
			kept = append(kept, dp)
		}
	}
	f.goals[goal] = kept
	return nil
}

// fakeStore is an in-memory DatapointStore.
type fakeStore struct {
	dps     []models.Datapoint
	saves   int
	saveErr error
}

func (f *fakeStore) Datapoints() []models.Datapoint { return f.dps }

func (f *fakeStore) Append(value float64, timestamp int64, comment string) {
	f.dps = append(f.dps, models.Datapoint{
		Value:     value,
		Timestamp: timestamp,
		Comment:   comment,
		ID:        fmt.Sprintf("local_%d_%g", timestamp, value),
	})
}

func (f *fakeStore) Exists(timestamp int64, value float64) bool {
	for _, dp := range f.dps {
		if dp.Timestamp == timestamp && dp.Value == value {
			return true
		}
	}
	return false
}

func (f *fakeStore) Save() error {
	f.saves++
	return f.saveErr
}

// fakeRunRepo records appended runs.
type fakeRunRepo struct {
	appended []models.SyncRun
	err      error

	listResp []models.SyncRun
	listErr  error
	gotFrom  time.Time
	gotTo    time.Time
	gotStat  string
}

func (f *fakeRunRepo) Append(ctx context.Context, run models.SyncRun) error {
	f.appended = append(f.appended, run)
	return f.err
}

func (f *fakeRunRepo) List(ctx context.Context, from, to time.Time, status string) ([]models.SyncRun, error) {
	f.gotFrom = from
	f.gotTo = to
	f.gotStat = status
	return f.listResp, f.listErr
}
