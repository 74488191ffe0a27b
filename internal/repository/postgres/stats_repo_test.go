package postgres_test

import (
	"context"
	"testing"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository/postgres"
	"github.com/riftstats/pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredContribution(championID int, patch string, win bool, score float64) domain.StatContribution {
	return domain.StatContribution{
		ChampionID:        championID,
		Patch:             patch,
		Win:               win,
		Build:             "3074_3071_3053",
		KeystoneID:        8010,
		SubStyleID:        8400,
		Kills:             5,
		Deaths:            3,
		Assists:           7,
		DamageToChampions: 18000,
		GoldEarned:        12000,
		CS:                180,
		Score:             &score,
	}
}

func TestStatsRepository_MergeContributions_Additive(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewStatsRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{
		scoredContribution(266, "14.10", true, 7.0),
	}))
	// A second merge for the same key increments, never replaces.
	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{
		scoredContribution(266, "14.10", false, 5.0),
	}))

	stat, err := repo.GetChampionStat(ctx, 266, "14.10")
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(2), stat.Games)
	assert.Equal(t, int64(1), stat.Wins)
	assert.Equal(t, int64(10), stat.Kills)
	assert.Equal(t, int64(2), stat.ScoredGames)
	assert.InDelta(t, 12.0, stat.ScoreSum, 0.001)

	builds, err := repo.TopBuilds(ctx, 266, "14.10", 10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, int64(2), builds[0].Games)
	assert.Equal(t, int64(1), builds[0].Wins)

	runes, err := repo.TopRunes(ctx, 266, "14.10", 10)
	require.NoError(t, err)
	require.Len(t, runes, 1)
	assert.Equal(t, 8010, runes[0].KeystoneID)
	assert.Equal(t, int64(2), runes[0].Games)
}

func TestStatsRepository_MergeContributions_FoldsBatch(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewStatsRepository(testDB.DB)
	ctx := context.Background()

	// One batch carrying two rows for the same key must pre-merge them;
	// Postgres rejects double conflicts within a single INSERT otherwise.
	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{
		scoredContribution(266, "14.10", true, 7.0),
		scoredContribution(266, "14.10", true, 8.0),
		scoredContribution(103, "14.10", false, 4.0),
	}))

	stat, err := repo.GetChampionStat(ctx, 266, "14.10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stat.Games)
	assert.Equal(t, int64(2), stat.Wins)

	other, err := repo.GetChampionStat(ctx, 103, "14.10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.Games)
}

func TestStatsRepository_MergeContributions_NullScore(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewStatsRepository(testDB.DB)
	ctx := context.Background()

	remake := scoredContribution(266, "14.10", true, 0)
	remake.Score = nil
	remake.Build = ""

	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{remake}))

	stat, err := repo.GetChampionStat(ctx, 266, "14.10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stat.Games, "remakes count as games")
	assert.Equal(t, int64(0), stat.ScoredGames)
	assert.Equal(t, 0.0, stat.ScoreSum)

	builds, err := repo.TopBuilds(ctx, 266, "14.10", 10)
	require.NoError(t, err)
	assert.Empty(t, builds, "empty build keys produce no build rows")
}

func TestStatsRepository_GetChampionStat(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewStatsRepository(testDB.DB)
	ctx := context.Background()

	// Two patches, 14.9 more played.
	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{
		scoredContribution(266, "14.9", true, 6.0),
		scoredContribution(266, "14.9", false, 5.0),
		scoredContribution(266, "14.10", true, 7.0),
	}))

	stat, err := repo.GetChampionStat(ctx, 266, "14.10")
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(1), stat.Games)

	stat, err = repo.GetChampionStat(ctx, 266, "")
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, "14.9", stat.Patch, "empty patch resolves to the most-played one")

	stat, err = repo.GetChampionStat(ctx, 999, "")
	require.NoError(t, err)
	assert.Nil(t, stat, "unknown champion yields nil, not an error")
}

func TestStatsRepository_ChampionOverview(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewStatsRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{
		scoredContribution(266, "14.10", true, 7.0),
		scoredContribution(266, "14.10", false, 6.0),
		scoredContribution(103, "14.10", true, 8.0),
		scoredContribution(103, "14.9", true, 8.0),
	}))

	stats, err := repo.ChampionOverview(ctx, "14.10")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 266, stats[0].ChampionID, "ordered by games played")

	all, err := repo.ChampionOverview(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3, "empty patch spans all patches")
}

func TestStatsRepository_TopBuildsOrderAndLimit(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewStatsRepository(testDB.DB)
	ctx := context.Background()

	popular := scoredContribution(266, "14.10", true, 7.0)
	rare := scoredContribution(266, "14.10", false, 5.0)
	rare.Build = "6630_3071_3053"

	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{popular, popular, rare}))

	builds, err := repo.TopBuilds(ctx, 266, "14.10", 1)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, popular.Build, builds[0].Build)
	assert.Equal(t, int64(2), builds[0].Games)
}

func TestStatsRepository_DeleteOutsidePatches(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewStatsRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.MergeContributions(ctx, []domain.StatContribution{
		scoredContribution(266, "14.8", true, 6.0),
		scoredContribution(266, "14.9", true, 6.0),
		scoredContribution(266, "14.10", true, 7.0),
	}))

	// Each contribution creates a champion, build and rune row; dropping
	// one patch removes three rows.
	deleted, err := repo.DeleteOutsidePatches(ctx, []string{"14.9", "14.10"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	stat, err := repo.GetChampionStat(ctx, 266, "14.8")
	require.NoError(t, err)
	assert.Nil(t, stat)

	stat, err = repo.GetChampionStat(ctx, 266, "14.9")
	require.NoError(t, err)
	assert.NotNil(t, stat, "kept patches survive cleanup")

	_, err = repo.DeleteOutsidePatches(ctx, nil)
	assert.Error(t, err, "an empty keep set would wipe everything")
}
