package service

import (
	"context"
	"sync"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
)

// StatsAggregator buffers per-participant contributions in memory and
// flushes them as one additive merge into aggregate storage. It is shared
// mutable state: Add and Flush are safe to call from any number of
// concurrent enrichment calls.
type StatsAggregator struct {
	mu    sync.Mutex
	buf   []domain.StatContribution
	stats repository.StatsRepository
}

func NewStatsAggregator(stats repository.StatsRepository) *StatsAggregator {
	return &StatsAggregator{stats: stats}
}

func (a *StatsAggregator) Add(c domain.StatContribution) {
	a.mu.Lock()
	a.buf = append(a.buf, c)
	a.mu.Unlock()
}

// Pending reports how many contributions await the next flush.
func (a *StatsAggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Flush merges the buffered contributions into aggregate storage and
// returns how many were merged. The flush owns a snapshot taken at call
// time: contributions added while the merge runs land in the next flush.
// On failure the snapshot is restored ahead of anything buffered since, so
// a later flush retries the same contributions.
func (a *StatsAggregator) Flush(ctx context.Context) (int, error) {
	a.mu.Lock()
	snapshot := a.buf
	a.buf = nil
	a.mu.Unlock()

	if len(snapshot) == 0 {
		return 0, nil
	}

	if err := a.stats.MergeContributions(ctx, snapshot); err != nil {
		a.mu.Lock()
		a.buf = append(snapshot, a.buf...)
		a.mu.Unlock()
		return 0, err
	}
	return len(snapshot), nil
}
