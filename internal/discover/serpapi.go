// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// serpAPIBase is a variable so tests can point the provider at a local
// httptest server.
var serpAPIBase = "https://serpapi.com"

// SerpAPIProvider is the secondary web-search backend, used when the
// primary is unavailable or returns nothing.
type SerpAPIProvider struct {
	Client *http.Client
	APIKey string
}

// NewSerpAPIProvider builds a SerpAPI provider. An empty key yields a
// provider that always reports ErrUnavailable.
func NewSerpAPIProvider(apiKey string, timeout time.Duration) *SerpAPIProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SerpAPIProvider{
		Client: &http.Client{Timeout: timeout},
		APIKey: apiKey,
	}
}

func (p *SerpAPIProvider) Name() string { return "serpapi" }

type serpOrganicResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type serpResponse struct {
	OrganicResults []serpOrganicResult `json:"organic_results"`
}

// Search queries SerpAPI's Google engine. Result dates are unreliable in
// organic results, so items come back undated and the channel stamps them.
func (p *SerpAPIProvider) Search(ctx context.Context, query string, limit int) ([]types.DiscoveredItem, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: %w", ErrUnavailable)
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("api_key", p.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serpAPIBase+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("serpapi request failed: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("serpapi rejected credentials (HTTP %d): %w", resp.StatusCode, ErrUnavailable)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("serpapi rate limited: %w", ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("serpapi returned HTTP %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var parsed serpResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding serpapi response: %w", err)
	}

	items := make([]types.DiscoveredItem, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		if r.Link == "" {
			continue
		}
		items = append(items, types.DiscoveredItem{
			URL:     r.Link,
			Title:   r.Title,
			Summary: r.Snippet,
			Source:  "serpapi",
			Channel: types.ChannelSearch,
		})
	}
	return items, nil
}
