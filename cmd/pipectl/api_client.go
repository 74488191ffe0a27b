package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the pipeline service
type APIClient struct {
	baseURL      string
	cronSecret   string
	serviceToken string
	httpClient   *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, cronSecret, serviceToken string) *APIClient {
	return &APIClient{
		baseURL:      baseURL,
		cronSecret:   cronSecret,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Response types matching backend

type PassResult struct {
	Region     string `json:"region"`
	Scanned    int    `json:"scanned"`
	Stored     int    `json:"stored"`
	Discovered int    `json:"discovered"`
	Errors     int    `json:"errors"`
	NextIndex  int    `json:"nextIndex"`
	Reason     string `json:"reason"`
}

type ScrapeRun struct {
	Region     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Scanned    int
	Stored     int
	Discovered int
	Errors     int
	StopReason string
	Status     string
}

type ScrapeResponse struct {
	Results    []PassResult `json:"results"`
	Flushed    int          `json:"flushedContributions"`
	RecentRuns []ScrapeRun  `json:"recentRuns"`
}

type SyncResult struct {
	Version   string `json:"version"`
	Champions int    `json:"champions"`
	Items     int    `json:"items"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

type ScoreBreakdown struct {
	Combat   float64 `json:"combat"`
	Income   float64 `json:"income"`
	Tempo    float64 `json:"tempo"`
	WinBonus float64 `json:"winBonus"`
}

type ParticipantScore struct {
	PUUID      string          `json:"puuid"`
	ChampionID int             `json:"championId"`
	Score      *float64        `json:"score"`
	Breakdown  *ScoreBreakdown `json:"breakdown"`
}

type EnrichResponse struct {
	MatchID string                      `json:"matchId"`
	Scores  map[string]ParticipantScore `json:"scores"`
}

type Participant struct {
	PUUID        string   `json:"puuid"`
	SummonerName string   `json:"summonerName"`
	ChampionName string   `json:"championName"`
	TeamID       int      `json:"teamId"`
	Win          bool     `json:"win"`
	Kills        int      `json:"kills"`
	Deaths       int      `json:"deaths"`
	Assists      int      `json:"assists"`
	Score        *float64 `json:"score"`
}

type MatchResponse struct {
	ID           string        `json:"id"`
	Region       string        `json:"region"`
	Patch        string        `json:"patch"`
	QueueID      int           `json:"queueId"`
	GameDuration int           `json:"gameDuration"`
	Remake       bool          `json:"remake"`
	Enrichment   string        `json:"enrichment"`
	Participants []Participant `json:"participants"`
}

type ChampionOverviewEntry struct {
	ChampionID int      `json:"championId"`
	Name       string   `json:"name"`
	Patch      string   `json:"patch"`
	Games      int64    `json:"games"`
	WinRate    float64  `json:"winRate"`
	AvgScore   *float64 `json:"avgScore"`
}

type OverviewResponse struct {
	Champions []ChampionOverviewEntry `json:"champions"`
}

// TriggerScrape runs one scrape invocation, optionally narrowed to regions
// and seeded with bootstrap PUUIDs.
func (c *APIClient) TriggerScrape(regions, seeds []string) (*ScrapeResponse, error) {
	body := map[string][]string{}
	if len(regions) > 0 {
		body["regions"] = regions
	}
	if len(seeds) > 0 {
		body["seeds"] = seeds
	}

	resp, err := c.post("/internal/scrape", body, true)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("scrape", resp)
	}

	var result ScrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// SyncStaticData refreshes the champion and item catalogs.
func (c *APIClient) SyncStaticData() (*SyncResult, error) {
	resp, err := c.post("/internal/static/sync", nil, true)
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("sync", resp)
	}

	var result SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// CleanupStats deletes aggregate rows outside the kept patches.
func (c *APIClient) CleanupStats(keepPatches []string) (int64, error) {
	body := map[string][]string{"keepPatches": keepPatches}

	resp, err := c.post("/internal/stats/cleanup", body, true)
	if err != nil {
		return 0, fmt.Errorf("cleanup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apiError("cleanup", resp)
	}

	var result CleanupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Deleted, nil
}

// EnrichMatch synchronously enriches one match.
func (c *APIClient) EnrichMatch(matchID string) (*EnrichResponse, error) {
	resp, err := c.post("/api/v1/matches/"+matchID+"/enrich", nil, false)
	if err != nil {
		return nil, fmt.Errorf("enrich request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("enrich", resp)
	}

	var result EnrichResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetMatch fetches one stored match with its enrichment status.
func (c *APIClient) GetMatch(matchID string) (*MatchResponse, error) {
	resp, err := c.get("/api/v1/matches/" + matchID)
	if err != nil {
		return nil, fmt.Errorf("get match request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get match", resp)
	}

	var result MatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// ChampionOverview lists per-champion aggregates.
func (c *APIClient) ChampionOverview(patch string) (*OverviewResponse, error) {
	path := "/api/v1/stats/champions"
	if patch != "" {
		path += "?patch=" + patch
	}

	resp, err := c.get(path)
	if err != nil {
		return nil, fmt.Errorf("overview request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("overview", resp)
	}

	var result OverviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// HTTP helpers

func (c *APIClient) get(path string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, false)
	return c.httpClient.Do(req)
}

func (c *APIClient) post(path string, body interface{}, internal bool) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, internal)
	return c.httpClient.Do(req)
}

func (c *APIClient) setHeaders(req *http.Request, internal bool) {
	req.Header.Set("Content-Type", "application/json")
	if internal {
		req.Header.Set("X-Cron-Secret", c.cronSecret)
	} else if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}
}

func apiError(op string, resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (status %d): %s", op, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
}
