package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStatsRepo records merge batches and can fail on demand. When the
// gate channels are set, a merge signals entered and blocks until release
// closes, letting a test hold a flush mid-flight.
type stubStatsRepo struct {
	mu       sync.Mutex
	batches  [][]domain.StatContribution
	failNext bool
	entered  chan struct{}
	release  chan struct{}
}

func (s *stubStatsRepo) MergeContributions(ctx context.Context, contribs []domain.StatContribution) error {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("merge failed")
	}
	batch := make([]domain.StatContribution, len(contribs))
	copy(batch, contribs)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *stubStatsRepo) ChampionOverview(ctx context.Context, patch string) ([]*domain.ChampionStat, error) {
	return nil, nil
}

func (s *stubStatsRepo) GetChampionStat(ctx context.Context, championID int, patch string) (*domain.ChampionStat, error) {
	return nil, nil
}

func (s *stubStatsRepo) TopBuilds(ctx context.Context, championID int, patch string, limit int) ([]*domain.ChampionBuildStat, error) {
	return nil, nil
}

func (s *stubStatsRepo) TopRunes(ctx context.Context, championID int, patch string, limit int) ([]*domain.ChampionRuneStat, error) {
	return nil, nil
}

func (s *stubStatsRepo) DeleteOutsidePatches(ctx context.Context, keep []string) (int64, error) {
	return 0, nil
}

func contribution(championID int) domain.StatContribution {
	return domain.StatContribution{ChampionID: championID, Patch: "14.10", Win: true, Kills: 5}
}

func TestStatsAggregator_FlushMergesSnapshot(t *testing.T) {
	repo := &stubStatsRepo{}
	agg := service.NewStatsAggregator(repo)

	agg.Add(contribution(1))
	agg.Add(contribution(2))
	agg.Add(contribution(3))
	assert.Equal(t, 3, agg.Pending())

	n, err := agg.Flush(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, agg.Pending())
	require.Len(t, repo.batches, 1)
	assert.Len(t, repo.batches[0], 3)
}

func TestStatsAggregator_FlushEmpty(t *testing.T) {
	repo := &stubStatsRepo{}
	agg := service.NewStatsAggregator(repo)

	n, err := agg.Flush(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, repo.batches, "empty flush never reaches storage")
}

func TestStatsAggregator_FailureRestoresBuffer(t *testing.T) {
	repo := &stubStatsRepo{failNext: true}
	agg := service.NewStatsAggregator(repo)

	agg.Add(contribution(1))
	agg.Add(contribution(2))

	n, err := agg.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, agg.Pending(), "failed snapshot returns to the buffer")

	// A contribution added after the failure lands behind the restored ones.
	agg.Add(contribution(3))

	n, err = agg.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, repo.batches, 1)
	assert.Equal(t, []int{1, 2, 3}, []int{
		repo.batches[0][0].ChampionID,
		repo.batches[0][1].ChampionID,
		repo.batches[0][2].ChampionID,
	})
}

func TestStatsAggregator_MidFlightAddLandsInNextFlush(t *testing.T) {
	repo := &stubStatsRepo{entered: make(chan struct{}, 2), release: make(chan struct{})}
	agg := service.NewStatsAggregator(repo)

	agg.Add(contribution(1))

	done := make(chan int, 1)
	go func() {
		n, _ := agg.Flush(context.Background())
		done <- n
	}()

	<-repo.entered
	// The running flush owns its snapshot; this belongs to the next one.
	agg.Add(contribution(2))
	close(repo.release)

	assert.Equal(t, 1, <-done)
	assert.Equal(t, 1, agg.Pending())

	n, err := agg.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, repo.batches, 2)
	assert.Equal(t, 2, repo.batches[1][0].ChampionID)
}

func TestStatsAggregator_ConcurrentAdds(t *testing.T) {
	repo := &stubStatsRepo{}
	agg := service.NewStatsAggregator(repo)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Add(contribution(i))
		}()
	}
	wg.Wait()

	n, err := agg.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}
