package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
	"github.com/riftstats/pipeline/internal/service"
)

// Enrichment status reported on the match read surface.
const (
	enrichmentComplete = "complete"
	enrichmentPending  = "pending"
	enrichmentFailed   = "failed"
)

// enrichWaitBudget is how long the read endpoint waits for an auto-submitted
// enrichment before answering with pending.
const enrichWaitBudget = 1500 * time.Millisecond

type MatchHandler struct {
	matches repository.MatchRepository
	queue   *service.EnrichmentQueue
}

func NewMatchHandler(matches repository.MatchRepository, queue *service.EnrichmentQueue) *MatchHandler {
	return &MatchHandler{matches: matches, queue: queue}
}

type MatchResponse struct {
	*domain.Match
	Enrichment string `json:"enrichment"`
}

type EnrichResponse struct {
	MatchID string                              `json:"matchId"`
	Scores  map[string]*domain.ParticipantScore `json:"scores"`
}

// Get returns a stored match with participants. Un-enriched matches are
// auto-submitted for enrichment with a short grace window, so dashboards
// usually see scores on the first load.
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	match, err := h.matches.GetWithParticipants(r.Context(), matchID)
	if err != nil {
		log.Printf("ERROR [match.Get] matchID=%s: %v", matchID, err)
		http.Error(w, "Failed to load match", http.StatusInternalServerError)
		return
	}
	if match == nil {
		writeDomainError(w, domain.ErrMatchNotFound)
		return
	}

	if allEnriched(match) {
		writeJSON(w, http.StatusOK, MatchResponse{Match: match, Enrichment: enrichmentComplete})
		return
	}

	done, err := h.queue.Submit(matchID)
	if err != nil {
		// Backlog full: serve the raw match, a later read resubmits.
		log.Printf("ERROR [match.Get] submit matchID=%s: %v", matchID, err)
		writeJSON(w, http.StatusOK, MatchResponse{Match: match, Enrichment: enrichmentPending})
		return
	}

	select {
	case res := <-done:
		if res.Err != nil {
			log.Printf("ERROR [match.Get] enrich matchID=%s: %v", matchID, res.Err)
			writeJSON(w, http.StatusOK, MatchResponse{Match: match, Enrichment: enrichmentFailed})
			return
		}
		if refreshed, err := h.matches.GetWithParticipants(r.Context(), matchID); err == nil && refreshed != nil {
			match = refreshed
		}
		writeJSON(w, http.StatusOK, MatchResponse{Match: match, Enrichment: enrichmentComplete})
	case <-time.After(enrichWaitBudget):
		writeJSON(w, http.StatusOK, MatchResponse{Match: match, Enrichment: enrichmentPending})
	case <-r.Context().Done():
	}
}

// Enrich synchronously enriches one match and returns the per-participant
// score map. Errors carry reason tags: 404 unknown match, 410 past the
// timeline retention horizon, 429/503 upstream trouble worth retrying.
func (h *MatchHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	done, err := h.queue.Submit(matchID)
	if err != nil {
		log.Printf("ERROR [match.Enrich] submit matchID=%s: %v", matchID, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	select {
	case res := <-done:
		if res.Err != nil {
			writeDomainError(w, res.Err)
			return
		}
		writeJSON(w, http.StatusOK, EnrichResponse{MatchID: matchID, Scores: res.Scores})
	case <-r.Context().Done():
		// The job keeps running; a retry lands on the cached result.
	}
}

func allEnriched(match *domain.Match) bool {
	if len(match.Participants) == 0 {
		return false
	}
	for i := range match.Participants {
		if !match.Participants[i].Enriched() {
			return false
		}
	}
	return true
}
