package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/TaskKeeper/internal/models"
)

// StatusFilter selects which terminal statuses a history query returns.
type StatusFilter string

const (
	FilterAll    StatusFilter = "all"
	FilterDone   StatusFilter = "done"
	FilterFailed StatusFilter = "failed"
)

// HistoryQuery describes a history store query. From and To bound the
// completion date inclusively at day granularity. An empty Owner matches
// every entry; the zero Status behaves like FilterAll.
type HistoryQuery struct {
	Owner  string
	From   time.Time
	To     time.Time
	Status StatusFilter
}

// QueryResult carries the matching entries in file order plus per-day
// aggregate counts keyed by yyyy-MM-dd completion date. The count maps
// feed the chart renderer; only days with at least one entry have a key.
type QueryResult struct {
	Entries []models.HistoryEntry
	Done    map[string]int
	Failed  map[string]int
}

// HistoryService implements filtered queries over the archive.
type HistoryService struct {
	repo HistoryRepository
	log  *zap.Logger
}

// NewHistoryService constructs a HistoryService over the given repository.
func NewHistoryService(repo HistoryRepository, log *zap.Logger) *HistoryService {
	return &HistoryService{repo: repo, log: log}
}

// Query filters the archive by owner, completion date range, and status.
// Entries without a recognizable completion date are skipped silently,
// matching the stores' parse leniency.
func (s *HistoryService) Query(q HistoryQuery) (QueryResult, error) {
	entries, skipped, err := s.repo.Load()
	if err != nil {
		return QueryResult{}, fmt.Errorf("load history: %w", err)
	}
	if skipped > 0 {
		s.log.Warn("skipped malformed history lines", zap.Int("count", skipped))
	}

	res := QueryResult{
		Done:   make(map[string]int),
		Failed: make(map[string]int),
	}
	from := models.DateOnly(q.From)
	to := models.DateOnly(q.To)
	for _, e := range entries {
		if q.Owner != "" && e.Owner != q.Owner {
			continue
		}
		day := e.Status.CompletedOn
		if day.IsZero() || day.Before(from) || day.After(to) {
			continue
		}
		switch q.Status {
		case FilterDone:
			if e.Status.Kind != models.StatusDone {
				continue
			}
		case FilterFailed:
			if e.Status.Kind != models.StatusFailed {
				continue
			}
		}

		key := day.Format(models.DateLayout)
		if e.Status.Kind == models.StatusFailed {
			res.Failed[key]++
		} else {
			res.Done[key]++
		}
		res.Entries = append(res.Entries, e)
	}
	return res, nil
}
