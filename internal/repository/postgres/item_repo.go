package postgres

import (
	"context"

	"github.com/riftstats/pipeline/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *itemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) UpsertMany(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&items).Error
}

func (r *itemRepository) CompletedItemIDs(ctx context.Context, minGold int) (map[int]bool, error) {
	var ids []int
	err := r.db.WithContext(ctx).Model(&domain.Item{}).
		Where("purchasable = ? AND gold_total >= ?", true, minGold).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
