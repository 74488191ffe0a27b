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

func TestItemRepository_UpsertMany(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewItemRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []*domain.Item{
		{ID: 3074, Name: "Ravenous Hydra", GoldTotal: 3300, Purchasable: true},
	}))

	// Patch day: the same item comes back with a new price.
	require.NoError(t, repo.UpsertMany(ctx, []*domain.Item{
		{ID: 3074, Name: "Ravenous Hydra", GoldTotal: 3400, Purchasable: true},
	}))

	var item domain.Item
	require.NoError(t, testDB.DB.First(&item, "id = ?", 3074).Error)
	assert.Equal(t, 3400, item.GoldTotal)

	require.NoError(t, repo.UpsertMany(ctx, nil), "empty batches are a no-op")
}

func TestItemRepository_CompletedItemIDs(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewItemRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []*domain.Item{
		{ID: 1055, Name: "Doran's Blade", GoldTotal: 450, Purchasable: true},
		{ID: 3074, Name: "Ravenous Hydra", GoldTotal: 3300, Purchasable: true},
		{ID: 7015, Name: "Ceaseless Hunger", GoldTotal: 3300, Purchasable: false}, // ornn upgrade
	}))

	completed, err := repo.CompletedItemIDs(ctx, 2000)

	require.NoError(t, err)
	assert.True(t, completed[3074])
	assert.False(t, completed[1055], "components fall under the gold threshold")
	assert.False(t, completed[7015], "non-purchasable upgrades are excluded")
}
