package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riftstats/pipeline/internal/api"
	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
	repoPostgres "github.com/riftstats/pipeline/internal/repository/postgres"
	"github.com/riftstats/pipeline/internal/riot"
	"github.com/riftstats/pipeline/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_riftstats"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"participants",
		"matches",
		"players",
		"region_scrape_states",
		"scrape_runs",
		"champion_stats",
		"champion_build_stats",
		"champion_rune_stats",
		"champions",
		"items",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                  "0", // Random port
		Environment:           "test",
		RiotAPIKey:            "test-riot-api-key",
		Regions:               []domain.Region{domain.RegionNA1},
		CronSecret:            "test-cron-secret",
		JWTSecret:             "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours:    1,
		ScrapeBudget:          5 * time.Second,
		ScrapeSafetyMargin:    500 * time.Millisecond,
		MatchWindowDays:       7,
		NewMatchCap:           5,
		MatchListCount:        20,
		CandidateLimit:        50,
		EnrichWorkers:         2,
		EnrichBacklog:         16,
		TimelineRetentionDays: 365,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Riot     *FakeRiot
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies. The
// upstream API is faked; tests seed it through ts.Riot.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()

	repos := repoPostgres.NewRepositories(testDB.DB)
	fake := NewFakeRiot()
	services := service.NewServices(repos, fake, riot.NewDataDragonClient(), cfg)
	router := api.NewRouter(services, repos, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Riot:     fake,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		services.Queue.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// InternalURL returns the full URL for an internal (cron) endpoint
func (ts *TestServer) InternalURL(path string) string {
	return fmt.Sprintf("%s/internal%s", ts.Server.URL, path)
}
