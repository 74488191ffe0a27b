package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *matchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) FilterExisting(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// Store inserts the match row and its participants in one transaction. A
// conflicting identifier skips both inserts, keeping the operation
// idempotent under concurrent scrapers.
func (r *matchRepository) Store(ctx context.Context, match *domain.Match) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit("Participants").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(match)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // already stored
		}
		created = true

		if len(match.Participants) == 0 {
			return nil
		}
		for i := range match.Participants {
			match.Participants[i].MatchID = match.ID
		}
		return tx.Create(&match.Participants).Error
	})
	return created, err
}

func (r *matchRepository) GetWithParticipants(ctx context.Context, id string) (*domain.Match, error) {
	var match domain.Match
	err := r.db.WithContext(ctx).Preload("Participants").First(&match, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) AttachTimeline(ctx context.Context, id string, timeline []byte) error {
	return r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id = ?", id).
		Update("timeline", datatypes.JSON(timeline)).Error
}

// MarkEnriched is a conditional stamp: only the call that flips enriched_at
// from NULL sees created=true, which gates aggregate submission to the
// first-ever enrichment.
func (r *matchRepository) MarkEnriched(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Match{}).
		Where("id = ? AND enriched_at IS NULL", id).
		Update("enriched_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
