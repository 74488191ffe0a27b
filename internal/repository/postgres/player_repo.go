package postgres

import (
	"context"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type playerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *playerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) UpsertSeen(ctx context.Context, players []*domain.Player) error {
	if len(players) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "puuid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"summoner_name": gorm.Expr("EXCLUDED.summoner_name"),
			"last_seen_at":  gorm.Expr("GREATEST(players.last_seen_at, EXCLUDED.last_seen_at)"),
		}),
	}).Create(&players).Error
}

func (r *playerRepository) RecentlyActive(ctx context.Context, region domain.Region, since time.Time, limit int) ([]string, error) {
	var puuids []string
	err := r.db.WithContext(ctx).Model(&domain.Player{}).
		Where("region = ? AND last_seen_at >= ?", region, since).
		Order("last_seen_at DESC").
		Limit(limit).
		Pluck("puuid", &puuids).Error
	if err != nil {
		return nil, err
	}
	return puuids, nil
}
