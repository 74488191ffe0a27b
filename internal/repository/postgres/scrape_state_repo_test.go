package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository/postgres"
	"github.com/riftstats/pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeStateRepository_GetOrCreate(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewScrapeStateRepository(testDB.DB)
	ctx := context.Background()

	state, err := repo.GetOrCreate(ctx, domain.RegionNA1)
	require.NoError(t, err)
	assert.Equal(t, domain.RegionNA1, state.Region)
	assert.Equal(t, 0, state.Cursor, "a fresh region starts at cursor zero")

	now := time.Now()
	state.Cursor = 12
	state.TotalScraped = 40
	state.LastRunAt = &now
	require.NoError(t, repo.Save(ctx, state))

	// The same row comes back on the next invocation.
	again, err := repo.GetOrCreate(ctx, domain.RegionNA1)
	require.NoError(t, err)
	assert.Equal(t, 12, again.Cursor)
	assert.Equal(t, int64(40), again.TotalScraped)
	require.NotNil(t, again.LastRunAt)

	// Regions are independent rows.
	other, err := repo.GetOrCreate(ctx, domain.RegionEUW1)
	require.NoError(t, err)
	assert.Equal(t, 0, other.Cursor)
}
