package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/riftstats/pipeline/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

type OverviewResponse struct {
	Patch     string                           `json:"patch,omitempty"`
	Champions []*service.ChampionOverviewEntry `json:"champions"`
}

// Overview lists per-champion aggregates, most played first, optionally
// scoped with ?patch=.
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	patch := r.URL.Query().Get("patch")

	entries, err := h.statsService.ChampionOverview(r.Context(), patch)
	if err != nil {
		log.Printf("ERROR [stats.Overview]: %v", err)
		http.Error(w, "Failed to load champion stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, OverviewResponse{Patch: patch, Champions: entries})
}

// ChampionDetail returns one champion's aggregates with top builds and rune
// pages. Without ?patch= the champion's most-played patch is used.
func (h *StatsHandler) ChampionDetail(w http.ResponseWriter, r *http.Request) {
	championID, err := strconv.Atoi(chi.URLParam(r, "championId"))
	if err != nil {
		http.Error(w, "Invalid champion id", http.StatusBadRequest)
		return
	}
	patch := r.URL.Query().Get("patch")

	detail, err := h.statsService.ChampionDetail(r.Context(), championID, patch)
	if err != nil {
		log.Printf("ERROR [stats.ChampionDetail] championID=%d: %v", championID, err)
		http.Error(w, "Failed to load champion detail", http.StatusInternalServerError)
		return
	}
	if detail == nil {
		http.Error(w, "No stats for champion", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

type CleanupRequest struct {
	KeepPatches []string `json:"keepPatches"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// Cleanup deletes aggregate rows whose patch is outside the kept set. The
// keep list is required: an empty one would wipe every aggregate.
func (h *StatsHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.KeepPatches) == 0 {
		http.Error(w, "keepPatches must not be empty", http.StatusBadRequest)
		return
	}

	deleted, err := h.statsService.Cleanup(r.Context(), req.KeepPatches)
	if err != nil {
		log.Printf("ERROR [stats.Cleanup]: %v", err)
		http.Error(w, "Failed to clean up stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CleanupResponse{Deleted: deleted})
}
