package service

import (
	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/repository"
	"github.com/riftstats/pipeline/internal/riot"
)

type Services struct {
	Scrape     *ScrapeService
	Enrichment *EnrichmentService
	Queue      *EnrichmentQueue
	Aggregator *StatsAggregator
	Stats      *StatsService
	StaticData *StaticDataService
	Token      *TokenService
}

func NewServices(repos *repository.Repositories, client riot.API, ddragon *riot.DataDragonClient, cfg *config.Config) *Services {
	aggregator := NewStatsAggregator(repos.Stats)
	enrichment := NewEnrichmentService(repos.Match, repos.Participant, repos.Item, client, aggregator, cfg)

	return &Services{
		Scrape:     NewScrapeService(repos.Match, repos.Participant, repos.Player, repos.ScrapeState, repos.ScrapeRun, client, cfg),
		Enrichment: enrichment,
		Queue:      NewEnrichmentQueue(enrichment, cfg.EnrichWorkers, cfg.EnrichBacklog),
		Aggregator: aggregator,
		Stats:      NewStatsService(repos.Stats, repos.Champion),
		StaticData: NewStaticDataService(repos.Champion, repos.Item, ddragon),
		Token:      NewTokenService(cfg),
	}
}
