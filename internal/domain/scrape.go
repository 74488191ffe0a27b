package domain

import (
	"time"

	"github.com/google/uuid"
)

// RegionScrapeState is the only scheduler state that crosses invocation
// boundaries: one row per region, read at pass start and written at pass end.
type RegionScrapeState struct {
	Region       Region `gorm:"primaryKey"`
	Cursor       int    // index into the candidate list, wraps modulo its current length
	TotalScraped int64
	LastRunAt    *time.Time
	UpdatedAt    time.Time
}

// PassReason says why a scrape pass stopped.
type PassReason string

const (
	// PassTimeExpired: the remaining wall-clock budget dropped below the
	// safety margin.
	PassTimeExpired PassReason = "time_expired"
	// PassExhausted: a full traversal of the candidate list stored nothing,
	// or the list was empty.
	PassExhausted PassReason = "exhausted"
	// PassSaturated: too many consecutive rate-limit timeouts; back off
	// until the next invocation.
	PassSaturated PassReason = "rate_limit_saturated"
)

// PassResult summarizes one region pass.
type PassResult struct {
	Region     Region     `json:"region"`
	Scanned    int        `json:"scanned"`
	Stored     int        `json:"stored"`
	Discovered int        `json:"discovered"`
	Errors     int        `json:"errors"`
	NextIndex  int        `json:"nextIndex"`
	Reason     PassReason `json:"reason"`
}

// Scrape run lifecycle statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// ScrapeRun is one row of pass history, kept for operability.
type ScrapeRun struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Region     Region    `gorm:"index"`
	StartedAt  time.Time
	FinishedAt *time.Time
	Scanned    int
	Stored     int
	Discovered int
	Errors     int
	StopReason string
	Status     string `gorm:"index"`
}
