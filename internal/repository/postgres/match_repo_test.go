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

func newMatch(id string) *domain.Match {
	return &domain.Match{
		ID:           id,
		Region:       domain.RegionNA1,
		Patch:        "14.10",
		QueueID:      420,
		GameCreation: time.Now().Add(-time.Hour),
		GameDuration: 1800,
		Participants: []domain.Participant{
			testutil.NewParticipantBuilder().WithPUUID("puuid-1").Value(),
			testutil.NewParticipantBuilder().WithPUUID("puuid-2").WithTeam(200).WithWin(false).Value(),
		},
	}
}

func TestMatchRepository_Store(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMatchRepository(testDB.DB)
	ctx := context.Background()
	matchID := testutil.NextMatchID()

	created, err := repo.Store(ctx, newMatch(matchID))
	require.NoError(t, err)
	assert.True(t, created)

	// Re-storing the same identifier is a no-op, not an error.
	created, err = repo.Store(ctx, newMatch(matchID))
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetWithParticipants(ctx, matchID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Participants, 2, "participants are not duplicated on re-store")
}

func TestMatchRepository_GetWithParticipants_Missing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMatchRepository(testDB.DB)

	got, err := repo.GetWithParticipants(context.Background(), "NA1_missing")

	require.NoError(t, err, "an absent match is not an error")
	assert.Nil(t, got)
}

func TestMatchRepository_FilterExisting(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMatchRepository(testDB.DB)
	ctx := context.Background()

	storedA := testutil.NextMatchID()
	storedB := testutil.NextMatchID()
	testutil.NewMatchBuilder().WithID(storedA).Build(t, testDB.DB)
	testutil.NewMatchBuilder().WithID(storedB).Build(t, testDB.DB)

	existing, err := repo.FilterExisting(ctx, []string{storedA, "NA1_unknown", storedB})

	require.NoError(t, err)
	assert.True(t, existing[storedA])
	assert.True(t, existing[storedB])
	assert.False(t, existing["NA1_unknown"])

	existing, err = repo.FilterExisting(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestMatchRepository_AttachTimeline(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMatchRepository(testDB.DB)
	ctx := context.Background()
	matchID := testutil.NextMatchID()

	testutil.NewMatchBuilder().WithID(matchID).Build(t, testDB.DB)

	err := repo.AttachTimeline(ctx, matchID, []byte(`{"metadata":{"matchId":"`+matchID+`"}}`))
	require.NoError(t, err)

	got, err := repo.GetWithParticipants(ctx, matchID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Timeline)
}

func TestMatchRepository_MarkEnriched(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewMatchRepository(testDB.DB)
	ctx := context.Background()
	matchID := testutil.NextMatchID()

	testutil.NewMatchBuilder().WithID(matchID).Build(t, testDB.DB)

	first, err := repo.MarkEnriched(ctx, matchID)
	require.NoError(t, err)
	assert.True(t, first, "the first stamp reports first-run")

	second, err := repo.MarkEnriched(ctx, matchID)
	require.NoError(t, err)
	assert.False(t, second, "repeat stamps report not-first-run")

	got, err := repo.GetWithParticipants(ctx, matchID)
	require.NoError(t, err)
	assert.NotNil(t, got.EnrichedAt)
}
