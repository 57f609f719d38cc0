// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds fresh candidate URLs for a seed set. Two channels
// feed it: RSS/Atom feeds (primary) and web search (secondary, used only for
// slots the feeds leave open). Both run under one shared quota and one
// wall-clock deadline; whatever has been collected when the deadline fires
// is kept.
package discover

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Discoverer runs the discovery phase for one query.
type Discoverer struct {
	Feeds  *FeedChannel
	Search *SearchChannel
	Config types.DiscoveryConfig
}

// NewDiscoverer wires the feed and search channels from one config.
func NewDiscoverer(cfg types.DiscoveryConfig, providers []Provider) *Discoverer {
	return &Discoverer{
		Feeds:  NewFeedChannel(cfg),
		Search: &SearchChannel{Providers: providers, Config: cfg},
		Config: cfg,
	}
}

// Discover pulls fresh items for the seed set. The feed channel runs first;
// the search channel runs only if quota remains and the seed set carries
// entities to query with. Discovery never fails: channel errors are warned
// to w and the call returns whatever was found, possibly nothing.
func (d *Discoverer) Discover(ctx context.Context, seeds types.SeedSet, w io.Writer) []types.DiscoveredItem {
	maxURLs := d.Config.MaxURLs
	if maxURLs <= 0 {
		maxURLs = 200
	}
	deadline := d.Config.Deadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	recentDays := d.Config.RecentDays
	if recentDays <= 0 {
		recentDays = 14
	}
	cutoff := time.Now().AddDate(0, 0, -recentDays)

	var quota atomic.Int64
	quota.Store(int64(maxURLs))

	items := d.Feeds.Pull(ctx, seeds.Feeds, cutoff, &quota, w)

	if quota.Load() > 0 && len(seeds.Entities) > 0 {
		items = append(items, d.Search.Pull(ctx, seeds.Entities, cutoff, &quota, w)...)
	}
	return items
}
