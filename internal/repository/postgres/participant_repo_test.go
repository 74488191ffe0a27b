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

func TestParticipantRepository_UpdateDerived(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewParticipantRepository(testDB.DB)
	ctx := context.Background()
	matchID := testutil.NextMatchID()

	testutil.NewMatchBuilder().WithID(matchID).Build(t, testDB.DB)

	buildOrder := "3074,3071"
	score := 7.25
	now := time.Now()
	require.NoError(t, repo.UpdateDerived(ctx, matchID, "puuid-1", domain.DerivedFields{
		BuildOrder: &buildOrder,
		Score:      &score,
		EnrichedAt: &now,
	}))

	var p domain.Participant
	require.NoError(t, testDB.DB.First(&p, "match_id = ? AND puuid = ?", matchID, "puuid-1").Error)
	require.NotNil(t, p.BuildOrder)
	assert.Equal(t, buildOrder, *p.BuildOrder)
	require.NotNil(t, p.Score)
	assert.Equal(t, score, *p.Score)
	assert.True(t, p.Enriched())
	assert.Nil(t, p.AbilityOrder, "omitted fields stay untouched")

	// A later partial update only touches what it names.
	abilityOrder := "QWEQ"
	require.NoError(t, repo.UpdateDerived(ctx, matchID, "puuid-1", domain.DerivedFields{
		AbilityOrder: &abilityOrder,
	}))

	require.NoError(t, testDB.DB.First(&p, "match_id = ? AND puuid = ?", matchID, "puuid-1").Error)
	require.NotNil(t, p.AbilityOrder)
	assert.Equal(t, abilityOrder, *p.AbilityOrder)
	require.NotNil(t, p.Score, "earlier derived fields survive")
	assert.Equal(t, score, *p.Score)

	// The second participant is untouched throughout.
	var other domain.Participant
	require.NoError(t, testDB.DB.First(&other, "match_id = ? AND puuid = ?", matchID, "puuid-2").Error)
	assert.False(t, other.Enriched())

	require.NoError(t, repo.UpdateDerived(ctx, matchID, "puuid-1", domain.DerivedFields{}), "all-nil updates are a no-op")
}

func TestParticipantRepository_RecentPUUIDs(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewParticipantRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	// Two NA matches at different ages plus one EUW match.
	testutil.NewMatchBuilder().
		WithGameCreation(now.Add(-time.Hour)).
		WithParticipants(
			testutil.NewParticipantBuilder().WithPUUID("recent-1").Value(),
			testutil.NewParticipantBuilder().WithPUUID("shared").WithTeam(200).Value(),
		).
		Build(t, testDB.DB)
	testutil.NewMatchBuilder().
		WithGameCreation(now.Add(-72 * time.Hour)).
		WithParticipants(
			testutil.NewParticipantBuilder().WithPUUID("older-1").Value(),
			testutil.NewParticipantBuilder().WithPUUID("shared").WithTeam(200).Value(),
		).
		Build(t, testDB.DB)
	testutil.NewMatchBuilder().
		WithRegion(domain.RegionEUW1).
		WithID("EUW1_4400000900").
		WithGameCreation(now.Add(-time.Hour)).
		WithParticipants(
			testutil.NewParticipantBuilder().WithPUUID("euw-only").Value(),
			testutil.NewParticipantBuilder().WithPUUID("euw-other").WithTeam(200).Value(),
		).
		Build(t, testDB.DB)

	puuids, err := repo.RecentPUUIDs(ctx, domain.RegionNA1, now.Add(-14*24*time.Hour), 50)

	require.NoError(t, err)
	assert.Len(t, puuids, 3, "each player appears once")
	assert.Contains(t, puuids, "recent-1")
	assert.Contains(t, puuids, "older-1")
	assert.Contains(t, puuids, "shared")
	assert.NotContains(t, puuids, "euw-only")
	assert.Equal(t, "older-1", puuids[len(puuids)-1], "least recently seen comes last")
}
