package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riftstats/pipeline/internal/api"
	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/repository/postgres"
	"github.com/riftstats/pipeline/internal/riot"
	"github.com/riftstats/pipeline/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize upstream clients
	limiter := riot.NewRateLimiter()
	client := riot.NewClient(cfg.RiotAPIKey, limiter)
	ddragon := riot.NewDataDragonClient()

	// Initialize services
	services := service.NewServices(repos, client, ddragon, cfg)

	// Initialize router
	router := api.NewRouter(services, repos, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s, regions=%v", cfg.Port, cfg.Regions)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	// Drain in-flight enrichment, then merge whatever it buffered.
	services.Queue.Close()
	if flushed, err := services.Aggregator.Flush(ctx); err != nil {
		log.Printf("ERROR [main] final flush: %v", err)
	} else if flushed > 0 {
		log.Printf("Flushed %d buffered contributions on shutdown", flushed)
	}

	log.Println("Server stopped")
}
