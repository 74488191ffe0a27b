package domain

import "errors"

// Admission and upstream errors
var (
	// ErrRateLimitTimeout: no rate-limit slot freed within the caller's
	// budget. Expected and non-fatal; callers skip the unit of work.
	ErrRateLimitTimeout = errors.New("rate limit admission timed out")
	// ErrRateLimited: the upstream rejected a call with 429.
	ErrRateLimited = errors.New("upstream rate limit exceeded")
	// ErrUpstreamUnavailable: network failure or upstream 5xx; safe to retry
	// on a later invocation.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Enrichment errors
var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrParticipantsNotFound = errors.New("match has no participants")
	// ErrTimelineTooOld: the match is past the upstream timeline retention
	// horizon and no timeline was stored, so enrichment can never complete.
	ErrTimelineTooOld = errors.New("timeline retention window exceeded")
)

// Reason is the machine-readable tag attached to errors crossing the HTTP
// boundary, so the presentation layer can render contextual messaging.
type Reason string

const (
	ReasonTooOld      Reason = "tooOld"
	ReasonRateLimited Reason = "rateLimited"
	ReasonNotFound    Reason = "notFound"
	ReasonUpstream    Reason = "upstream"
)

// ReasonFor maps a pipeline error to its reason tag. The second return is
// false for errors with no presentation meaning.
func ReasonFor(err error) (Reason, bool) {
	switch {
	case errors.Is(err, ErrTimelineTooOld):
		return ReasonTooOld, true
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrRateLimitTimeout):
		return ReasonRateLimited, true
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, ErrParticipantsNotFound):
		return ReasonNotFound, true
	case errors.Is(err, ErrUpstreamUnavailable):
		return ReasonUpstream, true
	}
	return "", false
}
