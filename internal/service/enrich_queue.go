package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
)

var (
	ErrQueueFull   = errors.New("enrichment queue is full")
	ErrQueueClosed = errors.New("enrichment queue is closed")
)

const enrichJobTimeout = 2 * time.Minute

// Enricher is the part of the enrichment service the queue dispatches to.
type Enricher interface {
	Enrich(ctx context.Context, matchID string) (map[string]*domain.ParticipantScore, error)
}

// EnrichmentResult is delivered on the channel returned by Submit.
type EnrichmentResult struct {
	MatchID string
	Scores  map[string]*domain.ParticipantScore
	Err     error
}

type enrichJob struct {
	matchID string
	done    chan EnrichmentResult
}

// EnrichmentQueue runs enrichment jobs on a fixed pool of workers so read
// traffic can request enrichment without blocking on upstream calls.
type EnrichmentQueue struct {
	enricher Enricher
	jobs     chan enrichJob
	wg       sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewEnrichmentQueue(enricher Enricher, workers, backlog int) *EnrichmentQueue {
	if workers < 1 {
		workers = 1
	}
	q := &EnrichmentQueue{
		enricher: enricher,
		jobs:     make(chan enrichJob, backlog),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Submit enqueues a match for enrichment and returns a channel the caller
// may await or abandon; results are buffered so workers never block on
// delivery. Returns ErrQueueFull when the backlog is at capacity.
func (q *EnrichmentQueue) Submit(matchID string) (<-chan EnrichmentResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return nil, ErrQueueClosed
	}

	job := enrichJob{matchID: matchID, done: make(chan EnrichmentResult, 1)}
	select {
	case q.jobs <- job:
		return job.done, nil
	default:
		return nil, ErrQueueFull
	}
}

func (q *EnrichmentQueue) worker() {
	defer q.wg.Done()

	for job := range q.jobs {
		// Jobs run detached from the submitting request so an abandoned
		// caller does not cancel work other waiters share.
		ctx, cancel := context.WithTimeout(context.Background(), enrichJobTimeout)
		scores, err := q.enricher.Enrich(ctx, job.matchID)
		cancel()

		if err != nil {
			log.Printf("ERROR [enrichQueue.worker] matchID=%s: %v", job.matchID, err)
		}
		job.done <- EnrichmentResult{MatchID: job.matchID, Scores: scores, Err: err}
	}
}

// Close stops accepting submissions and blocks until queued jobs finish.
func (q *EnrichmentQueue) Close() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
