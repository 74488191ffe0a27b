package handlers

import (
	"log"
	"net/http"

	"github.com/riftstats/pipeline/internal/service"
)

type StaticDataHandler struct {
	staticData *service.StaticDataService
}

func NewStaticDataHandler(staticData *service.StaticDataService) *StaticDataHandler {
	return &StaticDataHandler{staticData: staticData}
}

// Sync pulls the latest Data Dragon champion and item catalogs.
func (h *StaticDataHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.staticData.SyncAll(r.Context())
	if err != nil {
		log.Printf("ERROR [staticData.Sync]: %v", err)
		http.Error(w, "Failed to sync static data", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
