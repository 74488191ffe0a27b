package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/riftstats/pipeline/internal/domain"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps pipeline failure classes onto transport statuses:
// permanent conditions get 4xx, retryable upstream trouble gets 503. The
// reason tag lets callers distinguish "come back later" from "never".
func writeDomainError(w http.ResponseWriter, err error) {
	reason, ok := domain.ReasonFor(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	var status int
	switch reason {
	case domain.ReasonTooOld:
		status = http.StatusGone
	case domain.ReasonRateLimited:
		status = http.StatusTooManyRequests
	case domain.ReasonNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Reason: string(reason)})
}
