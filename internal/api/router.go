package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/riftstats/pipeline/internal/api/handlers"
	"github.com/riftstats/pipeline/internal/api/middleware"
	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/repository"
	"github.com/riftstats/pipeline/internal/service"
)

func NewRouter(services *service.Services, repos *repository.Repositories, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	scrapeHandler := handlers.NewScrapeHandler(services.Scrape, services.Aggregator, cfg)
	matchHandler := handlers.NewMatchHandler(repos.Match, services.Queue)
	statsHandler := handlers.NewStatsHandler(services.Stats)
	staticDataHandler := handlers.NewStaticDataHandler(services.StaticData)

	// Internal endpoints, called by the scheduler
	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.CronSecret(cfg.CronSecret))
		r.Post("/scrape", scrapeHandler.Trigger)
		r.Post("/static/sync", staticDataHandler.Sync)
		r.Post("/stats/cleanup", statsHandler.Cleanup)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/matches", func(r chi.Router) {
			r.Get("/{matchID}", matchHandler.Get)

			// Synchronous enrichment is reserved for sibling services
			r.Group(func(r chi.Router) {
				r.Use(middleware.ServiceAuth(services.Token))
				r.Post("/{matchID}/enrich", matchHandler.Enrich)
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/champions", statsHandler.Overview)
			r.Get("/champions/{championId}", statsHandler.ChampionDetail)
		})
	})

	return r
}
