// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// exaAPIBase is a variable so tests can point the provider at a local
// httptest server.
var exaAPIBase = "https://api.exa.ai"

// ExaProvider is the primary web-search backend.
type ExaProvider struct {
	Client *http.Client
	APIKey string
}

// NewExaProvider builds an Exa provider. An empty key yields a provider that
// always reports ErrUnavailable so the chain moves on.
func NewExaProvider(apiKey string, timeout time.Duration) *ExaProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ExaProvider{
		Client: &http.Client{Timeout: timeout},
		APIKey: apiKey,
	}
}

func (p *ExaProvider) Name() string { return "exa" }

type exaRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
	Type       string `json:"type"`
}

type exaResult struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Text          string `json:"text"`
	PublishedDate string `json:"publishedDate"`
}

type exaResponse struct {
	Results []exaResult `json:"results"`
}

// Search queries the Exa search API.
func (p *ExaProvider) Search(ctx context.Context, query string, limit int) ([]types.DiscoveredItem, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: %w", ErrUnavailable)
	}
	if limit <= 0 {
		limit = 10
	}

	body, err := json.Marshal(exaRequest{Query: query, NumResults: limit, Type: "auto"})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exaAPIBase+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("exa request failed: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("exa rejected credentials (HTTP %d): %w", resp.StatusCode, ErrUnavailable)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("exa rate limited: %w", ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("exa returned HTTP %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var parsed exaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding exa response: %w", err)
	}

	items := make([]types.DiscoveredItem, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		var published time.Time
		if r.PublishedDate != "" {
			if t, err := time.Parse(time.RFC3339, r.PublishedDate); err == nil {
				published = t
			}
		}
		items = append(items, types.DiscoveredItem{
			URL:         r.URL,
			Title:       r.Title,
			Summary:     r.Text,
			PublishedAt: published,
			Source:      "exa",
			Channel:     types.ChannelSearch,
		})
	}
	return items, nil
}
