// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// ErrUnavailable reports that a search provider cannot serve requests right
// now: missing credentials, auth rejection, network failure, or persistent
// rate limiting. It is distinct from a successful search with zero results,
// which does not trigger provider fallback by itself but still allows the
// next provider a chance to fill the window.
var ErrUnavailable = errors.New("search provider unavailable")

// Provider is one web-search backend. Implementations return discovered
// items for a query, newest results first where the backend supports it.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.DiscoveredItem, error)
}

// SearchChannel fills discovery slots the feed channel left open. It issues
// one recency-framed query per top entity and walks the provider chain in
// order, falling back when a provider is unavailable or empty-handed.
type SearchChannel struct {
	Providers []Provider
	Config    types.DiscoveryConfig
}

// Pull runs entity queries against the provider chain until the quota is
// exhausted or every entity has been tried. Results outside the recency
// window are dropped; results without a date are stamped with the discovery
// time so the window invariant holds for everything retained.
func (sc *SearchChannel) Pull(ctx context.Context, entities []string, cutoff time.Time, quota *atomic.Int64, w io.Writer) []types.DiscoveredItem {
	entityCap := sc.Config.SearchEntityCap
	if entityCap <= 0 {
		entityCap = 3
	}
	if len(entities) > entityCap {
		entities = entities[:entityCap]
	}

	now := time.Now()
	var items []types.DiscoveredItem
	for _, entity := range entities {
		remaining := int(quota.Load())
		if remaining <= 0 {
			break
		}
		query := fmt.Sprintf("%s recent news", entity)
		results := sc.query(ctx, query, remaining, w)
		for _, item := range results {
			if item.URL == "" {
				continue
			}
			if item.PublishedAt.IsZero() {
				item.PublishedAt = now
			} else if item.PublishedAt.Before(cutoff) {
				continue
			}
			if !takeSlot(quota) {
				break
			}
			items = append(items, item)
		}
	}
	return items
}

// query walks the provider chain for one query. The first provider that
// returns results wins; unavailable or empty providers pass the query on.
func (sc *SearchChannel) query(ctx context.Context, query string, limit int, w io.Writer) []types.DiscoveredItem {
	for _, p := range sc.Providers {
		results, err := p.Search(ctx, query, limit)
		if err != nil {
			if !errors.Is(err, ErrUnavailable) {
				fmt.Fprintf(w, "warning: %s search failed: %v\n", p.Name(), err)
			}
			continue
		}
		if len(results) == 0 {
			continue
		}
		return results
	}
	return nil
}
