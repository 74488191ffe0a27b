package postgres

import (
	"context"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"gorm.io/gorm"
)

type participantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *participantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) UpdateDerived(ctx context.Context, matchID, puuid string, fields domain.DerivedFields) error {
	updates := map[string]interface{}{}
	if fields.BuildOrder != nil {
		updates["build_order"] = *fields.BuildOrder
	}
	if fields.AbilityOrder != nil {
		updates["ability_order"] = *fields.AbilityOrder
	}
	if fields.FirstBuys != nil {
		updates["first_buys"] = *fields.FirstBuys
	}
	if fields.KillQuality != nil {
		updates["kill_quality"] = fields.KillQuality
	}
	if fields.Score != nil {
		updates["score"] = *fields.Score
	}
	if fields.ScoreBreakdown != nil {
		updates["score_breakdown"] = fields.ScoreBreakdown
	}
	if fields.EnrichedAt != nil {
		updates["enriched_at"] = *fields.EnrichedAt
	}
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("match_id = ? AND puuid = ?", matchID, puuid).
		Updates(updates).Error
}

func (r *participantRepository) RecentPUUIDs(ctx context.Context, region domain.Region, since time.Time, limit int) ([]string, error) {
	var puuids []string
	err := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Joins("JOIN matches ON matches.id = participants.match_id").
		Where("matches.region = ? AND matches.game_creation >= ?", region, since).
		Group("participants.puuid").
		Order("MAX(matches.game_creation) DESC").
		Limit(limit).
		Pluck("participants.puuid", &puuids).Error
	if err != nil {
		return nil, err
	}
	return puuids, nil
}
