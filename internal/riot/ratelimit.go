package riot

import (
	"context"
	"sync"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
)

// EndpointClass partitions quota tracking. The upstream enforces separate
// method limits per endpoint family, so admission is bookkept per
// (routing domain, class) pair.
type EndpointClass string

const (
	ClassMatchList   EndpointClass = "match-list"
	ClassMatchDetail EndpointClass = "match-detail"
	ClassTimeline    EndpointClass = "timeline"
)

// admissionGranularity is the smallest budget Wait will block for. Budgets
// below it fail fast instead of arming a timer.
const admissionGranularity = 20 * time.Millisecond

// Limit is one quota window definition.
type Limit struct {
	Requests int
	Window   time.Duration
}

// defaultLimits mirrors the upstream development quota: 20 requests per
// second and 100 per two minutes.
var defaultLimits = []Limit{
	{Requests: 20, Window: time.Second},
	{Requests: 100, Window: 2 * time.Minute},
}

type quotaWindow struct {
	limit      Limit
	timestamps []time.Time
}

// admissibleAt prunes expired timestamps and returns the earliest instant a
// new call fits the window. Caller holds the limiter lock.
func (w *quotaWindow) admissibleAt(now time.Time) time.Time {
	cutoff := now.Add(-w.limit.Window)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept
	if len(w.timestamps) < w.limit.Requests {
		return now
	}
	return w.timestamps[len(w.timestamps)-w.limit.Requests].Add(w.limit.Window)
}

// RateLimiter is per-(routing, endpoint class) admission control for
// outbound upstream calls. All bookkeeping is in-process; one limiter is
// shared by every component issuing upstream traffic.
type RateLimiter struct {
	mu      sync.Mutex
	limits  []Limit
	windows map[string][]*quotaWindow
}

// NewRateLimiter tracks the given quota windows per (routing, class) pair,
// falling back to the upstream development quota when none are given.
func NewRateLimiter(limits ...Limit) *RateLimiter {
	if len(limits) == 0 {
		limits = defaultLimits
	}
	return &RateLimiter{
		limits:  limits,
		windows: make(map[string][]*quotaWindow),
	}
}

func (l *RateLimiter) key(region domain.Region, class EndpointClass) string {
	// Quota is enforced per routing domain: na1 and br1 share the americas
	// budget.
	return region.Routing() + "/" + string(class)
}

func (l *RateLimiter) windowsFor(key string) []*quotaWindow {
	ws, ok := l.windows[key]
	if !ok {
		ws = make([]*quotaWindow, len(l.limits))
		for i, limit := range l.limits {
			ws[i] = &quotaWindow{limit: limit}
		}
		l.windows[key] = ws
	}
	return ws
}

// Wait blocks until a call against (region, class) is admissible, or fails
// with domain.ErrRateLimitTimeout when no slot frees within budget. Timeout
// is an expected condition: callers skip the unit of work, they do not
// propagate it as a hard failure.
func (l *RateLimiter) Wait(ctx context.Context, region domain.Region, class EndpointClass, budget time.Duration) error {
	if budget < admissionGranularity {
		return domain.ErrRateLimitTimeout
	}
	deadline := time.Now().Add(budget)
	key := l.key(region, class)

	for {
		l.mu.Lock()
		now := time.Now()
		at := now
		for _, w := range l.windowsFor(key) {
			if t := w.admissibleAt(now); t.After(at) {
				at = t
			}
		}
		if !at.After(now) {
			for _, w := range l.windowsFor(key) {
				w.timestamps = append(w.timestamps, now)
			}
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if at.After(deadline) {
			return domain.ErrRateLimitTimeout
		}
		timer := time.NewTimer(time.Until(at))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Another goroutine may have taken the slot; loop and re-check.
		}
	}
}
