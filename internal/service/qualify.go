package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"medsync/internal/config"
	"medsync/internal/logger"
	"medsync/internal/models"
	"medsync/internal/repository"
)

const (
	// appleHealthMarker identifies datapoints produced by the Apple Health
	// auto-import. Their literal timestamp is unreliable (the integration
	// stamps end-of-day); the true wall-clock time is embedded in fulltext.
	appleHealthMarker = "Auto-entered via Apple Health"

	// minQualifyingMinutes is the duration threshold for a qualifying session.
	minQualifyingMinutes = 35.0

	// derivedValue is the value of every derived early-meditation datapoint.
	derivedValue = 1.0

	windowStartHour, windowStartMinute = 5, 0
	windowEndHour, windowEndMinute     = 8, 30
)

// fulltextTimeRe matches the "YYYY-Mon-DD entered at HH:MM" fragment the
// auto-import embeds in a datapoint's fulltext.
var fulltextTimeRe = regexp.MustCompile(`(\d{4}-[A-Za-z]{3}-\d{2}) entered at (\d{2}:\d{2})`)

// QualifyService derives early-meditation datapoints from the source goal.
type QualifyService struct {
	client     GoalClient
	store      repository.DatapointStore
	log        *logger.Logger
	sourceGoal string
	targetGoal string
	loc        *time.Location
}

func NewQualifyService(cfg *config.Config, client GoalClient, store repository.DatapointStore, log *logger.Logger) *QualifyService {
	return &QualifyService{
		client:     client,
		store:      store,
		log:        log,
		sourceGoal: cfg.SourceGoal,
		targetGoal: cfg.TargetGoal,
		loc:        cfg.Location(),
	}
}

// Qualify scans the source goal, filters to sessions of at least 35 minutes
// whose resolved occurrence time falls inside [05:00, 08:30] on their own
// calendar day, keeps the longest qualifying session per day, and records one
// derived datapoint per day: locally first (persisted immediately), then
// best-effort on the target goal. A remote failure never rolls back the
// local append.
func (s *QualifyService) Qualify(ctx context.Context) models.QualifyReport {
	var rep models.QualifyReport

	source, err := s.client.FetchAll(ctx, s.sourceGoal)
	if err != nil {
		rep.Failures = append(rep.Failures, fmt.Sprintf("fetch %s: %v", s.sourceGoal, err))
		if s.log != nil {
			s.log.Warnw("source fetch incomplete, qualifying partial data", "goal", s.sourceGoal, "fetched", len(source), "err", err)
		}
	}
	rep.Scanned = len(source)

	type candidate struct {
		dp models.Datapoint
		at time.Time
	}
	best := make(map[string]candidate)
	var days []string // map iteration order is random; keep first-seen order

	for _, dp := range source {
		at, ok := s.occurrence(dp)
		if !ok {
			rep.Skipped++
			if s.log != nil {
				s.log.Debugw("skipping auto-imported datapoint with unparseable time", "id", dp.ID, "fulltext", dp.Fulltext)
			}
			continue
		}
		if !s.inWindow(at) || dp.Value < minQualifyingMinutes {
			continue
		}
		// Already derived for this source datapoint on an earlier run.
		if s.store.Exists(dp.Timestamp, derivedValue) {
			continue
		}
		day := at.Format("2006-01-02")
		cur, seen := best[day]
		if !seen {
			best[day] = candidate{dp: dp, at: at}
			days = append(days, day)
		} else if dp.Value > cur.dp.Value {
			best[day] = candidate{dp: dp, at: at}
		}
	}

	for _, day := range days {
		c := best[day]
		comment := fmt.Sprintf("Early meditation: %.1f minutes at %s", c.dp.Value, c.at.Format("15:04"))
		if s.log != nil {
			s.log.Infow("found qualifying meditation", "day", day, "minutes", c.dp.Value, "at", c.at.Format("15:04"))
		}

		s.store.Append(derivedValue, c.dp.Timestamp, comment)
		if err := s.store.Save(); err != nil {
			rep.Failures = append(rep.Failures, fmt.Sprintf("save store after %s: %v", day, err))
		}
		rep.Recorded++

		if err := s.client.Create(ctx, s.targetGoal, derivedValue, c.dp.Timestamp, comment); err != nil {
			rep.Failures = append(rep.Failures, fmt.Sprintf("create on %s for %s: %v", s.targetGoal, day, err))
		}
	}

	if s.log != nil {
		s.log.Infow("qualification complete", "source", s.sourceGoal,
			"scanned", rep.Scanned, "recorded", rep.Recorded, "skipped", rep.Skipped, "failures", len(rep.Failures))
	}
	return rep
}

// occurrence resolves a datapoint's true wall-clock time in the civil
// timezone. Auto-imported datapoints use the time embedded in fulltext; when
// that cannot be parsed the datapoint is unprovable and reported as not ok.
// All other datapoints use the literal timestamp.
func (s *QualifyService) occurrence(dp models.Datapoint) (time.Time, bool) {
	if strings.Contains(dp.Comment, appleHealthMarker) {
		return s.importedTime(dp.Fulltext)
	}
	return time.Unix(dp.Timestamp, 0).In(s.loc), true
}

// importedTime extracts and validates the embedded wall-clock time.
// time.ParseInLocation rejects impossible calendar values (Feb-30, hour 25,
// unknown month abbreviations), which is exactly the validation required.
func (s *QualifyService) importedTime(fulltext string) (time.Time, bool) {
	m := fulltextTimeRe.FindStringSubmatch(fulltext)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-Jan-02 15:04", m[1]+" "+m[2], s.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// inWindow reports whether t falls inside [05:00:00, 08:30:00] inclusive on
// its own calendar day.
func (s *QualifyService) inWindow(t time.Time) bool {
	start := time.Date(t.Year(), t.Month(), t.Day(), windowStartHour, windowStartMinute, 0, 0, s.loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), windowEndHour, windowEndMinute, 0, 0, s.loc)
	return !t.Before(start) && !t.After(end)
}
