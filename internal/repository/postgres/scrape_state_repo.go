package postgres

import (
	"context"

	"github.com/riftstats/pipeline/internal/domain"
	"gorm.io/gorm"
)

type scrapeStateRepository struct {
	db *gorm.DB
}

func NewScrapeStateRepository(db *gorm.DB) *scrapeStateRepository {
	return &scrapeStateRepository{db: db}
}

// GetOrCreate loads a region's cursor row, creating it at cursor 0 on first
// sight of the region.
func (r *scrapeStateRepository) GetOrCreate(ctx context.Context, region domain.Region) (*domain.RegionScrapeState, error) {
	state := &domain.RegionScrapeState{Region: region}
	err := r.db.WithContext(ctx).Where("region = ?", region).FirstOrCreate(state).Error
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *scrapeStateRepository) Save(ctx context.Context, state *domain.RegionScrapeState) error {
	return r.db.WithContext(ctx).Save(state).Error
}
