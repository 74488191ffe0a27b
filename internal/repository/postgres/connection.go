package postgres

import (
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the pipeline's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Match{},
		&domain.Participant{},
		&domain.Player{},
		&domain.RegionScrapeState{},
		&domain.ScrapeRun{},
		&domain.ChampionStat{},
		&domain.ChampionBuildStat{},
		&domain.ChampionRuneStat{},
		&domain.Champion{},
		&domain.Item{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Match:       NewMatchRepository(db),
		Participant: NewParticipantRepository(db),
		Player:      NewPlayerRepository(db),
		ScrapeState: NewScrapeStateRepository(db),
		ScrapeRun:   NewScrapeRunRepository(db),
		Stats:       NewStatsRepository(db),
		Champion:    NewChampionRepository(db),
		Item:        NewItemRepository(db),
	}
}
