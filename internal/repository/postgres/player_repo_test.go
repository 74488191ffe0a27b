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

func TestPlayerRepository_UpsertSeen(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	earlier := now.Add(-24 * time.Hour)

	require.NoError(t, repo.UpsertSeen(ctx, []*domain.Player{
		{PUUID: "p-1", Region: domain.RegionNA1, SummonerName: "One", LastSeenAt: now},
	}))

	// A sighting from an older match must not move last_seen_at backwards.
	require.NoError(t, repo.UpsertSeen(ctx, []*domain.Player{
		{PUUID: "p-1", Region: domain.RegionNA1, SummonerName: "One Renamed", LastSeenAt: earlier},
	}))

	var player domain.Player
	require.NoError(t, testDB.DB.First(&player, "puuid = ?", "p-1").Error)
	assert.Equal(t, "One Renamed", player.SummonerName, "the name always follows the latest payload")
	assert.WithinDuration(t, now, player.LastSeenAt, time.Second, "older sightings never regress the timestamp")

	// A newer sighting advances it.
	later := now.Add(time.Hour)
	require.NoError(t, repo.UpsertSeen(ctx, []*domain.Player{
		{PUUID: "p-1", Region: domain.RegionNA1, SummonerName: "One", LastSeenAt: later},
	}))
	require.NoError(t, testDB.DB.First(&player, "puuid = ?", "p-1").Error)
	assert.WithinDuration(t, later, player.LastSeenAt, time.Second)

	require.NoError(t, repo.UpsertSeen(ctx, nil), "empty batches are a no-op")
}

func TestPlayerRepository_RecentlyActive(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	testutil.NewPlayerBuilder().WithPUUID("fresh").WithLastSeen(now.Add(-time.Hour)).Build(t, testDB.DB)
	testutil.NewPlayerBuilder().WithPUUID("stale").WithLastSeen(now.Add(-30 * 24 * time.Hour)).Build(t, testDB.DB)
	testutil.NewPlayerBuilder().WithPUUID("older").WithLastSeen(now.Add(-48 * time.Hour)).Build(t, testDB.DB)
	testutil.NewPlayerBuilder().WithPUUID("elsewhere").WithRegion(domain.RegionEUW1).WithLastSeen(now.Add(-time.Hour)).Build(t, testDB.DB)

	puuids, err := repo.RecentlyActive(ctx, domain.RegionNA1, now.Add(-14*24*time.Hour), 50)

	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "older"}, puuids, "most recent first, window and region respected")

	limited, err := repo.RecentlyActive(ctx, domain.RegionNA1, now.Add(-14*24*time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, limited)
}
