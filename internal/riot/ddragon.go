package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const dataDragonBaseURL = "https://ddragon.leagueoflegends.com"

// DataDragonClient fetches the static champion and item catalogs. Data
// Dragon is a CDN with no auth and no rate limit, so it bypasses the
// limiter.
type DataDragonClient struct {
	baseURL string
	http    *http.Client
}

func NewDataDragonClient() *DataDragonClient {
	return &DataDragonClient{
		baseURL: dataDragonBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL overrides the CDN host so tests can point at a stub server.
func (c *DataDragonClient) WithBaseURL(base string) *DataDragonClient {
	c.baseURL = base
	return c
}

type DDragonChampion struct {
	ID    string   `json:"id"`  // slug, e.g. "Aatrox"
	Key   string   `json:"key"` // numeric key as string, e.g. "266"
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Image struct {
		Full string `json:"full"`
	} `json:"image"`
}

type DDragonItem struct {
	Name string `json:"name"`
	Gold struct {
		Total       int  `json:"total"`
		Purchasable bool `json:"purchasable"`
	} `json:"gold"`
	Tags []string `json:"tags"`
}

// LatestVersion returns the newest published catalog version.
func (c *DataDragonClient) LatestVersion(ctx context.Context) (string, error) {
	var versions []string
	if err := c.getJSON(ctx, c.baseURL+"/api/versions.json", &versions); err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("no versions available")
	}
	return versions[0], nil
}

// Champions returns the champion catalog for a version, keyed by slug.
func (c *DataDragonClient) Champions(ctx context.Context, version string) (map[string]DDragonChampion, error) {
	var resp struct {
		Data map[string]DDragonChampion `json:"data"`
	}
	url := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", c.baseURL, version)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Items returns the item catalog for a version, keyed by numeric item ID
// rendered as a string.
func (c *DataDragonClient) Items(ctx context.Context, version string) (map[string]DDragonItem, error) {
	var resp struct {
		Data map[string]DDragonItem `json:"data"`
	}
	url := fmt.Sprintf("%s/cdn/%s/data/en_US/item.json", c.baseURL, version)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ImageURL builds the CDN URL for a champion square asset.
func (c *DataDragonClient) ImageURL(version, imageFull string) string {
	return fmt.Sprintf("%s/cdn/%s/img/champion/%s", c.baseURL, version, imageFull)
}

func (c *DataDragonClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("data dragon returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
