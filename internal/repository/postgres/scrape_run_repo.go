package postgres

import (
	"context"

	"github.com/riftstats/pipeline/internal/domain"
	"gorm.io/gorm"
)

type scrapeRunRepository struct {
	db *gorm.DB
}

func NewScrapeRunRepository(db *gorm.DB) *scrapeRunRepository {
	return &scrapeRunRepository{db: db}
}

func (r *scrapeRunRepository) Create(ctx context.Context, run *domain.ScrapeRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *scrapeRunRepository) Finish(ctx context.Context, run *domain.ScrapeRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *scrapeRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ScrapeRun, error) {
	var runs []*domain.ScrapeRun
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
