package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/service"
)

type ScrapeHandler struct {
	scrapeService *service.ScrapeService
	aggregator    *service.StatsAggregator
	cfg           *config.Config
}

func NewScrapeHandler(scrapeService *service.ScrapeService, aggregator *service.StatsAggregator, cfg *config.Config) *ScrapeHandler {
	return &ScrapeHandler{
		scrapeService: scrapeService,
		aggregator:    aggregator,
		cfg:           cfg,
	}
}

type ScrapeRequest struct {
	// Regions narrows the invocation; empty means every configured region.
	Regions []string `json:"regions"`
	// Seeds are bootstrap PUUIDs merged into each region's candidate list,
	// for first runs against an empty database.
	Seeds []string `json:"seeds"`
}

type ScrapeResponse struct {
	Results    []*domain.PassResult `json:"results"`
	Flushed    int                  `json:"flushedContributions"`
	RecentRuns []*domain.ScrapeRun  `json:"recentRuns"`
}

// Trigger runs one scrape invocation across regions. The scheduler calls
// this on a fixed cadence; every call makes bounded forward progress and
// reports each region's pass outcome.
func (h *ScrapeHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	regions, err := h.resolveRegions(req.Regions)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.scrapeService.RunInvocation(r.Context(), regions, req.Seeds)
	if err != nil {
		// Partial results still come back; the failed region is visible in
		// its own entry.
		log.Printf("ERROR [scrape.Trigger]: %v", err)
	}

	// Opportunistic: merge whatever enrichment buffered since the last pass.
	flushed, err := h.aggregator.Flush(r.Context())
	if err != nil {
		log.Printf("ERROR [scrape.Trigger] flush: %v", err)
	}

	runs, err := h.scrapeService.RecentRuns(r.Context(), 20)
	if err != nil {
		log.Printf("ERROR [scrape.Trigger] recent runs: %v", err)
	}

	writeJSON(w, http.StatusOK, ScrapeResponse{Results: results, Flushed: flushed, RecentRuns: runs})
}

func (h *ScrapeHandler) resolveRegions(requested []string) ([]domain.Region, error) {
	if len(requested) == 0 {
		return h.cfg.Regions, nil
	}
	regions := make([]domain.Region, 0, len(requested))
	for _, raw := range requested {
		region, err := domain.ParseRegion(raw)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}
