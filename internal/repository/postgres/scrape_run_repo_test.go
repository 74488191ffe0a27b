package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository/postgres"
	"github.com/riftstats/pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeRunRepository_Lifecycle(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewScrapeRunRepository(testDB.DB)
	ctx := context.Background()

	run := &domain.ScrapeRun{
		ID:        uuid.New(),
		Region:    domain.RegionNA1,
		StartedAt: time.Now(),
		Status:    domain.RunStatusRunning,
	}
	require.NoError(t, repo.Create(ctx, run))

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = domain.RunStatusSuccess
	run.StopReason = string(domain.PassExhausted)
	run.Scanned = 10
	run.Stored = 4
	require.NoError(t, repo.Finish(ctx, run))

	runs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, 4, runs[0].Stored)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestScrapeRunRepository_ListRecent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewScrapeRunRepository(testDB.DB)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.ScrapeRun{
			ID:        uuid.New(),
			Region:    domain.RegionNA1,
			StartedAt: time.Now().Add(time.Duration(-i) * time.Hour),
			Status:    domain.RunStatusSuccess,
		}))
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt), "newest first")
}
