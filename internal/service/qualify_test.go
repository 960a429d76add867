package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medsync/internal/config"
	"medsync/internal/models"
)

const (
	sourceGoal = "meditatev4"
	targetGoal = "meditate-early"
)

func testCfg() *config.Config {
	return &config.Config{SourceGoal: sourceGoal, TargetGoal: targetGoal}
}

func nycLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// tsNYC returns the unix timestamp of the given wall-clock time on
// 2025-09-26 in New York.
func tsNYC(t *testing.T, hour, min, sec int) int64 {
	t.Helper()
	return time.Date(2025, time.September, 26, hour, min, sec, 0, nycLoc(t)).Unix()
}

func newQualify(client *fakeClient, store *fakeStore) *QualifyService {
	return NewQualifyService(testCfg(), client, store, nil)
}

func TestQualify_WindowBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		hour      int
		min       int
		sec       int
		qualifies bool
	}{
		{name: "exactly 05:00:00 qualifies", hour: 5, min: 0, sec: 0, qualifies: true},
		{name: "exactly 08:30:00 qualifies", hour: 8, min: 30, sec: 0, qualifies: true},
		{name: "08:30:01 does not qualify", hour: 8, min: 30, sec: 1, qualifies: false},
		{name: "04:59:59 does not qualify", hour: 4, min: 59, sec: 59, qualifies: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newFakeClient()
			client.goals[sourceGoal] = []models.Datapoint{
				{Value: 40, Timestamp: tsNYC(t, tc.hour, tc.min, tc.sec), Comment: "Manual entry", ID: "s1"},
			}
			store := &fakeStore{}

			rep := newQualify(client, store).Qualify(context.Background())

			if got := rep.Recorded == 1; got != tc.qualifies {
				t.Fatalf("recorded=%d, want qualifying=%v", rep.Recorded, tc.qualifies)
			}
		})
	}
}

func TestQualify_DurationThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     float64
		qualifies bool
	}{
		{name: "35 minutes qualifies", value: 35, qualifies: true},
		{name: "34.999 minutes does not", value: 34.999, qualifies: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newFakeClient()
			client.goals[sourceGoal] = []models.Datapoint{
				{Value: tc.value, Timestamp: tsNYC(t, 7, 0, 0), Comment: "Manual entry", ID: "s1"},
			}
			store := &fakeStore{}

			rep := newQualify(client, store).Qualify(context.Background())

			if got := rep.Recorded == 1; got != tc.qualifies {
				t.Fatalf("recorded=%d, want qualifying=%v", rep.Recorded, tc.qualifies)
			}
		})
	}
}

func TestQualify_KeepsLongestSessionPerDay(t *testing.T) {
	t.Parallel()

	shortTS := tsNYC(t, 7, 21, 0)
	longTS := tsNYC(t, 8, 0, 0)
	client := newFakeClient()
	client.goals[sourceGoal] = []models.Datapoint{
		{Value: 35, Timestamp: shortTS, Comment: "Manual entry", ID: "s1"},
		{Value: 50, Timestamp: longTS, Comment: "Manual entry", ID: "s2"},
	}
	store := &fakeStore{}

	rep := newQualify(client, store).Qualify(context.Background())

	if rep.Recorded != 1 {
		t.Fatalf("recorded=%d, want 1", rep.Recorded)
	}
	if len(store.dps) != 1 {
		t.Fatalf("store has %d datapoints, want 1", len(store.dps))
	}
	derived := store.dps[0]
	if derived.Value != 1 || derived.Timestamp != longTS {
		t.Fatalf("derived record should carry the longest session's timestamp: %+v", derived)
	}
	if !strings.Contains(derived.Comment, "50.0") {
		t.Fatalf("comment should mention the 50-minute session: %q", derived.Comment)
	}
	if len(client.creates) != 1 || client.creates[0].goal != targetGoal || client.creates[0].timestamp != longTS {
		t.Fatalf("unexpected remote creates: %+v", client.creates)
	}
}

func TestQualify_AppleHealthOverridesLiteralTimestamp(t *testing.T) {
	t.Parallel()

	// Literal timestamp is 23:00 UTC (19:00 in New York) — outside the
	// window. The embedded fulltext time says 07:21, which is inside.
	literalTS := time.Date(2025, time.September, 26, 23, 0, 0, 0, time.UTC).Unix()
	fulltext := "2025-Sep-26 entered at 07:21 by zarathustra via BeemiOS"

	t.Run("marker present, fulltext time wins", func(t *testing.T) {
		t.Parallel()
		client := newFakeClient()
		client.goals[sourceGoal] = []models.Datapoint{
			{Value: 45, Timestamp: literalTS, Comment: "Auto-entered via Apple Health", Fulltext: fulltext, ID: "s1"},
		}
		store := &fakeStore{}

		rep := newQualify(client, store).Qualify(context.Background())

		if rep.Recorded != 1 {
			t.Fatalf("recorded=%d, want 1", rep.Recorded)
		}
		// The derived record keeps the original literal timestamp.
		if store.dps[0].Timestamp != literalTS {
			t.Fatalf("derived timestamp = %d, want literal %d", store.dps[0].Timestamp, literalTS)
		}
	})

	t.Run("no marker, literal timestamp is used", func(t *testing.T) {
		t.Parallel()
		client := newFakeClient()
		client.goals[sourceGoal] = []models.Datapoint{
			{Value: 45, Timestamp: literalTS, Comment: "Manual entry", Fulltext: fulltext, ID: "s1"},
		}
		store := &fakeStore{}

		rep := newQualify(client, store).Qualify(context.Background())

		if rep.Recorded != 0 {
			t.Fatalf("recorded=%d, want 0 (19:00 local is outside the window)", rep.Recorded)
		}
	})
}

func TestQualify_UnparseableAutoImportIsSkipped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fulltext string
	}{
		{name: "no pattern", fulltext: "Invalid format text"},
		{name: "missing fulltext", fulltext: ""},
		{name: "invalid month abbreviation", fulltext: "2025-Inv-26 entered at 07:21 by zarathustra via BeemiOS"},
		{name: "impossible calendar values", fulltext: "2025-Feb-30 entered at 25:61 by zarathustra via BeemiOS"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newFakeClient()
			client.goals[sourceGoal] = []models.Datapoint{
				{Value: 45, Timestamp: tsNYC(t, 7, 0, 0), Comment: "Auto-entered via Apple Health", Fulltext: tc.fulltext, ID: "s1"},
			}
			store := &fakeStore{}

			rep := newQualify(client, store).Qualify(context.Background())

			// Even though the literal timestamp would qualify, the record
			// cannot be proven to qualify and is skipped.
			if rep.Recorded != 0 || rep.Skipped != 1 {
				t.Fatalf("recorded=%d skipped=%d, want 0/1", rep.Recorded, rep.Skipped)
			}
		})
	}
}

func TestQualify_AlreadyRecordedIsNotDuplicated(t *testing.T) {
	t.Parallel()

	ts := tsNYC(t, 7, 0, 0)
	client := newFakeClient()
	client.goals[sourceGoal] = []models.Datapoint{
		{Value: 45, Timestamp: ts, Comment: "Manual entry", ID: "s1"},
	}
	store := &fakeStore{}
	store.Append(1, ts, "Early meditation: 45.0 minutes at 07:00")

	rep := newQualify(client, store).Qualify(context.Background())

	if rep.Recorded != 0 {
		t.Fatalf("recorded=%d, want 0", rep.Recorded)
	}
	if len(store.dps) != 1 {
		t.Fatalf("store grew to %d datapoints", len(store.dps))
	}
	if len(client.creates) != 0 {
		t.Fatalf("unexpected remote creates: %+v", client.creates)
	}
}

func TestQualify_RemoteFailureKeepsLocalAppend(t *testing.T) {
	t.Parallel()

	ts := tsNYC(t, 7, 0, 0)
	client := newFakeClient()
	client.goals[sourceGoal] = []models.Datapoint{
		{Value: 45, Timestamp: ts, Comment: "Manual entry", ID: "s1"},
	}
	client.createErr = errors.New("api down")
	store := &fakeStore{}

	rep := newQualify(client, store).Qualify(context.Background())

	if rep.Recorded != 1 || len(store.dps) != 1 {
		t.Fatalf("local append must survive remote failure: recorded=%d store=%d", rep.Recorded, len(store.dps))
	}
	if store.saves == 0 {
		t.Fatalf("store was not persisted")
	}
	if len(rep.Failures) != 1 {
		t.Fatalf("remote failure must be reported: %+v", rep.Failures)
	}
}

func TestQualify_RerunAfterSuccessIsIdempotent(t *testing.T) {
	t.Parallel()

	ts := tsNYC(t, 7, 0, 0)
	client := newFakeClient()
	client.goals[sourceGoal] = []models.Datapoint{
		{Value: 45, Timestamp: ts, Comment: "Manual entry", ID: "s1"},
	}
	store := &fakeStore{}
	svc := newQualify(client, store)

	first := svc.Qualify(context.Background())
	if first.Recorded != 1 {
		t.Fatalf("first pass recorded=%d, want 1", first.Recorded)
	}

	second := svc.Qualify(context.Background())
	if second.Recorded != 0 || len(store.dps) != 1 {
		t.Fatalf("second pass must be a no-op: recorded=%d store=%d", second.Recorded, len(store.dps))
	}
}
