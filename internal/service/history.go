package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"medsync/internal/models"
	"medsync/internal/repository"
)

// HistoryService answers run-history queries.
type HistoryService struct {
	runs repository.RunRepo
}

func NewHistoryService(runs repository.RunRepo) *HistoryService {
	return &HistoryService{runs: runs}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// List returns recorded runs matching the filter, ascending by start time.
func (s *HistoryService) List(ctx context.Context, f RunFilter) ([]models.SyncRun, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	status := strings.ToLower(strings.TrimSpace(f.Status))
	return s.runs.List(ctx, from, to, status)
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
