package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/riot"
)

// FakeRiot is an in-memory stand-in for the upstream match API. Unknown
// identifiers behave like upstream 404s (nil result, nil error); the Err
// fields force failures; call counters let tests assert on upstream traffic.
type FakeRiot struct {
	mu sync.Mutex

	matchIDs    map[string][]string
	matches     map[string]*riot.Match
	timelines   map[string]*riot.Timeline
	listHistory []string

	ListErr     error
	MatchErr    error
	TimelineErr error

	// MatchDelay slows GetMatch down, for overlap tests.
	MatchDelay time.Duration

	ListCalls     int
	MatchCalls    int
	TimelineCalls int
}

var _ riot.API = (*FakeRiot)(nil)

func NewFakeRiot() *FakeRiot {
	return &FakeRiot{
		matchIDs:  make(map[string][]string),
		matches:   make(map[string]*riot.Match),
		timelines: make(map[string]*riot.Timeline),
	}
}

func listKey(region domain.Region, puuid string) string {
	return fmt.Sprintf("%s/%s", region, puuid)
}

// SetMatchIDs seeds the identifier list one player's history returns.
func (f *FakeRiot) SetMatchIDs(region domain.Region, puuid string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchIDs[listKey(region, puuid)] = ids
}

// SetMatch seeds one match detail document.
func (f *FakeRiot) SetMatch(m *riot.Match) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[m.Metadata.MatchID] = m
}

// SetTimeline seeds one timeline document.
func (f *FakeRiot) SetTimeline(tl *riot.Timeline) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timelines[tl.Metadata.MatchID] = tl
}

func (f *FakeRiot) ListMatchIDs(ctx context.Context, region domain.Region, puuid string, opts riot.ListOptions) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	f.listHistory = append(f.listHistory, puuid)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	ids := f.matchIDs[listKey(region, puuid)]
	if opts.Count > 0 && len(ids) > opts.Count {
		ids = ids[:opts.Count]
	}
	return ids, nil
}

func (f *FakeRiot) GetMatch(ctx context.Context, region domain.Region, matchID string) (*riot.Match, error) {
	f.mu.Lock()
	f.MatchCalls++
	err := f.MatchErr
	m := f.matches[matchID]
	delay := f.MatchDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (f *FakeRiot) GetTimeline(ctx context.Context, region domain.Region, matchID string) (*riot.Timeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TimelineCalls++
	if f.TimelineErr != nil {
		return nil, f.TimelineErr
	}
	return f.timelines[matchID], nil
}

// Calls reports the total upstream calls made so far.
func (f *FakeRiot) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls + f.MatchCalls + f.TimelineCalls
}

// Counts returns the per-endpoint call counters.
func (f *FakeRiot) Counts() (list, match, timeline int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls, f.MatchCalls, f.TimelineCalls
}

// ListHistory returns the players whose histories were listed, in call order.
func (f *FakeRiot) ListHistory() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.listHistory))
	copy(out, f.listHistory)
	return out
}
