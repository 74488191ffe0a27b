package riot_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/riot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AdmitsUpToWindowLimit(t *testing.T) {
	limiter := riot.NewRateLimiter(riot.Limit{Requests: 3, Window: time.Second})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := limiter.Wait(ctx, domain.RegionNA1, riot.ClassMatchDetail, time.Second)
		require.NoError(t, err, "call %d should be admitted", i+1)
	}

	// Window is full and won't free a slot within the budget, so Wait
	// returns without sleeping the whole window out.
	start := time.Now()
	err := limiter.Wait(ctx, domain.RegionNA1, riot.ClassMatchDetail, 50*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrRateLimitTimeout)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestRateLimiter_FailsFastBelowGranularity(t *testing.T) {
	limiter := riot.NewRateLimiter(riot.Limit{Requests: 100, Window: time.Second})

	start := time.Now()
	err := limiter.Wait(context.Background(), domain.RegionNA1, riot.ClassMatchList, 5*time.Millisecond)

	assert.ErrorIs(t, err, domain.ErrRateLimitTimeout)
	assert.Less(t, time.Since(start), 20*time.Millisecond, "sub-granularity budgets must not block")
}

func TestRateLimiter_BlocksUntilSlotFrees(t *testing.T) {
	limiter := riot.NewRateLimiter(riot.Limit{Requests: 1, Window: 60 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, domain.RegionNA1, riot.ClassTimeline, time.Second))

	start := time.Now()
	err := limiter.Wait(ctx, domain.RegionNA1, riot.ClassTimeline, time.Second)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond, "second call should wait for the window to roll")
}

func TestRateLimiter_ClassesTrackedSeparately(t *testing.T) {
	limiter := riot.NewRateLimiter(riot.Limit{Requests: 1, Window: time.Minute})
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, domain.RegionNA1, riot.ClassMatchList, time.Second))

	// A different endpoint class has its own window.
	require.NoError(t, limiter.Wait(ctx, domain.RegionNA1, riot.ClassMatchDetail, time.Second))

	// The saturated class times out.
	err := limiter.Wait(ctx, domain.RegionNA1, riot.ClassMatchList, 50*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrRateLimitTimeout)
}

func TestRateLimiter_RegionsShareRoutingQuota(t *testing.T) {
	limiter := riot.NewRateLimiter(riot.Limit{Requests: 1, Window: time.Minute})
	ctx := context.Background()

	// na1 and br1 both route through americas, so they compete for the
	// same window. euw1 routes through europe and is unaffected.
	require.NoError(t, limiter.Wait(ctx, domain.RegionNA1, riot.ClassMatchDetail, time.Second))

	err := limiter.Wait(ctx, domain.RegionBR1, riot.ClassMatchDetail, 50*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrRateLimitTimeout)

	require.NoError(t, limiter.Wait(ctx, domain.RegionEUW1, riot.ClassMatchDetail, time.Second))
}

func TestRateLimiter_ContextCancellation(t *testing.T) {
	limiter := riot.NewRateLimiter(riot.Limit{Requests: 1, Window: time.Minute})
	require.NoError(t, limiter.Wait(context.Background(), domain.RegionNA1, riot.ClassMatchDetail, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := limiter.Wait(ctx, domain.RegionNA1, riot.ClassMatchDetail, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiter_ConcurrentAdmission(t *testing.T) {
	limiter := riot.NewRateLimiter(riot.Limit{Requests: 5, Window: time.Minute})
	ctx := context.Background()

	var mu sync.Mutex
	admitted, rejected := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Wait(ctx, domain.RegionKR, riot.ClassMatchList, 50*time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
			} else {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, admitted, "exactly the window's worth of calls gets through")
	assert.Equal(t, 15, rejected)
}
