// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// FeedChannel pulls candidate items from RSS/Atom feeds. It is the primary
// discovery channel: feeds are fast, dated, and free.
type FeedChannel struct {
	Client *http.Client
	Config types.DiscoveryConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFeedChannel builds a feed channel with its own HTTP client.
func NewFeedChannel(cfg types.DiscoveryConfig) *FeedChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FeedChannel{
		Client:   &http.Client{Timeout: timeout},
		Config:   cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the per-host rate limiter, creating it on first use.
func (fc *FeedChannel) limiter(host string) *rate.Limiter {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	l, ok := fc.limiters[host]
	if !ok {
		r := fc.Config.FetchRate
		if r <= 0 {
			r = 4
		}
		l = rate.NewLimiter(rate.Limit(r), 1)
		fc.limiters[host] = l
	}
	return l
}

// Pull fetches every feed concurrently, filters entries to the recency
// window, and collects items until the shared quota or the per-feed cap is
// reached. A failing feed is skipped with a warning; it never aborts the
// channel. Items fetched before a context deadline are kept.
func (fc *FeedChannel) Pull(ctx context.Context, feeds []string, cutoff time.Time, quota *atomic.Int64, w io.Writer) []types.DiscoveredItem {
	perFeedCap := fc.Config.PerFeedCap
	if perFeedCap <= 0 {
		perFeedCap = 25
	}
	concurrency := fc.Config.MaxConcurrentFetches
	if concurrency <= 0 {
		concurrency = 8
	}

	var (
		mu    sync.Mutex
		items []types.DiscoveredItem
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, feedURL := range feeds {
		if quota.Load() <= 0 {
			break
		}
		g.Go(func() error {
			feedItems, err := fc.pullOne(ctx, feedURL, cutoff, quota, perFeedCap)
			if err != nil {
				mu.Lock()
				fmt.Fprintf(w, "warning: feed %s failed: %v\n", feedURL, err)
				mu.Unlock()
				return nil // isolated failure
			}
			mu.Lock()
			items = append(items, feedItems...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return items
}

// pullOne fetches and parses a single feed under the per-host rate limit.
func (fc *FeedChannel) pullOne(ctx context.Context, feedURL string, cutoff time.Time, quota *atomic.Int64, perFeedCap int) ([]types.DiscoveredItem, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	if err := fc.limiter(parsed.Host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if fc.Config.UserAgent != "" {
		req.Header.Set("User-Agent", fc.Config.UserAgent)
	}

	resp, err := fc.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	source := feed.Title
	if source == "" {
		source = feedURL
	}

	var items []types.DiscoveredItem
	for _, entry := range feed.Items {
		if len(items) >= perFeedCap {
			break
		}
		if entry.Link == "" {
			continue
		}

		var published time.Time
		switch {
		case entry.PublishedParsed != nil:
			published = *entry.PublishedParsed
		case entry.UpdatedParsed != nil:
			published = *entry.UpdatedParsed
		default:
			continue // undated feed entries are not trustworthy
		}
		if published.Before(cutoff) {
			continue
		}

		if !takeSlot(quota) {
			break
		}
		items = append(items, types.DiscoveredItem{
			URL:         entry.Link,
			Title:       entry.Title,
			Summary:     entry.Description,
			PublishedAt: published,
			Source:      source,
			Channel:     types.ChannelFeed,
		})
	}
	return items, nil
}

// takeSlot atomically claims one unit of the shared discovery quota.
func takeSlot(quota *atomic.Int64) bool {
	for {
		remaining := quota.Load()
		if remaining <= 0 {
			return false
		}
		if quota.CompareAndSwap(remaining, remaining-1) {
			return true
		}
	}
}
