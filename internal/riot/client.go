package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
)

// API is the upstream surface the pipeline consumes. *Client implements it;
// tests substitute fakes.
type API interface {
	// ListMatchIDs returns recent match identifiers for a player, newest
	// first. An unknown player yields an empty list, not an error.
	ListMatchIDs(ctx context.Context, region domain.Region, puuid string, opts ListOptions) ([]string, error)
	// GetMatch fetches full match detail. A 404 yields (nil, nil).
	GetMatch(ctx context.Context, region domain.Region, matchID string) (*Match, error)
	// GetTimeline fetches the match timeline. A 404 yields (nil, nil); the
	// upstream drops timelines past its retention horizon.
	GetTimeline(ctx context.Context, region domain.Region, matchID string) (*Timeline, error)
}

// ListOptions bounds a match-ID listing.
type ListOptions struct {
	StartTime time.Time // only matches created at or after this instant
	Count     int
	Start     int
	Queue     int // upstream queue filter, 0 means all queues
}

// maxAdmissionWait caps how long a single call may sit in rate-limit
// admission when the context carries no deadline.
const maxAdmissionWait = 10 * time.Second

// errNotFound is internal to the client; public methods translate it to a
// nil result per the resource-absent contract.
var errNotFound = errors.New("resource absent")

// Client talks to the regional match-v5 hosts. It classifies responses and
// never retries: 404 becomes a nil result, 429 becomes
// domain.ErrRateLimited, network errors and 5xx become
// domain.ErrUpstreamUnavailable. Retry policy belongs to callers.
type Client struct {
	apiKey  string
	baseURL string // test override; empty means the real regional hosts
	http    *http.Client
	limiter *RateLimiter
}

func NewClient(apiKey string, limiter *RateLimiter) *Client {
	return &Client{
		apiKey:  apiKey,
		limiter: limiter,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL overrides the upstream host so tests can point the client at a
// stub server.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

func (c *Client) host(region domain.Region) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", region.Routing())
}

func (c *Client) ListMatchIDs(ctx context.Context, region domain.Region, puuid string, opts ListOptions) ([]string, error) {
	q := url.Values{}
	if !opts.StartTime.IsZero() {
		q.Set("startTime", strconv.FormatInt(opts.StartTime.Unix(), 10))
	}
	if opts.Count > 0 {
		q.Set("count", strconv.Itoa(opts.Count))
	}
	if opts.Start > 0 {
		q.Set("start", strconv.Itoa(opts.Start))
	}
	if opts.Queue > 0 {
		q.Set("queue", strconv.Itoa(opts.Queue))
	}

	reqURL := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?%s", c.host(region), puuid, q.Encode())

	var ids []string
	if err := c.get(ctx, region, ClassMatchList, reqURL, &ids); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (c *Client) GetMatch(ctx context.Context, region domain.Region, matchID string) (*Match, error) {
	reqURL := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.host(region), matchID)

	var m Match
	if err := c.get(ctx, region, ClassMatchDetail, reqURL, &m); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (c *Client) GetTimeline(ctx context.Context, region domain.Region, matchID string) (*Timeline, error) {
	reqURL := fmt.Sprintf("%s/lol/match/v5/matches/%s/timeline", c.host(region), matchID)

	var tl Timeline
	if err := c.get(ctx, region, ClassTimeline, reqURL, &tl); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tl, nil
}

func (c *Client) get(ctx context.Context, region domain.Region, class EndpointClass, reqURL string, out interface{}) error {
	if err := c.limiter.Wait(ctx, region, class, admissionBudget(ctx)); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// admissionBudget derives the rate-limit wait budget from the context
// deadline so a time-boxed pass never sleeps past its remaining budget.
func admissionBudget(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < maxAdmissionWait {
			return remaining
		}
	}
	return maxAdmissionWait
}
