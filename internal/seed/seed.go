// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seed derives discovery seeds from a query: a bounded set of
// entities and an ordered, deduplicated feed list.
package seed

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Entity is one extracted named entity with its extraction confidence.
type Entity struct {
	Text       string
	Confidence float64
}

// EntityExtractor produces named entities from free text, in order of first
// occurrence. Implementations may wrap an NLP service; the default is the
// capitalization heuristic in this package.
type EntityExtractor interface {
	Entities(text string) []Entity
}

// genericTerms are query words that look like entities but carry no
// discovery signal on their own.
var genericTerms = map[string]struct{}{
	"today": {}, "yesterday": {}, "last week": {}, "last month": {},
	"security": {}, "attack": {}, "breach": {}, "news": {},
	"latest": {}, "recent": {},
}

// Deriver turns a query into a SeedSet using an entity extractor and the
// static topic→feed table.
type Deriver struct {
	Extractor EntityExtractor
	Table     *FeedTable
	Config    types.SeedConfig
}

// NewDeriver builds a Deriver over the embedded feed table.
func NewDeriver(extractor EntityExtractor, cfg types.SeedConfig) (*Deriver, error) {
	table, err := LoadFeedTable()
	if err != nil {
		return nil, fmt.Errorf("loading feed table: %w", err)
	}
	return &Deriver{Extractor: extractor, Table: table, Config: cfg}, nil
}

// Derive extracts entities and selects feeds for one query. The entity list
// is capped at EntityCap, ranked by confidence with first occurrence in the
// query breaking ties. The feed list unions every matched topic group,
// always appends the general group, and is never empty.
func (d *Deriver) Derive(ctx context.Context, query string) (types.SeedSet, error) {
	if err := ctx.Err(); err != nil {
		return types.SeedSet{}, err
	}
	return types.SeedSet{
		Entities: d.deriveEntities(query),
		Feeds:    d.deriveFeeds(query),
	}, nil
}

func (d *Deriver) deriveEntities(query string) []string {
	limit := d.Config.EntityCap
	if limit <= 0 {
		limit = 5
	}

	var kept []Entity
	seen := make(map[string]struct{})
	for _, e := range d.Extractor.Entities(query) {
		lower := strings.ToLower(e.Text)
		if _, generic := genericTerms[lower]; generic {
			continue
		}
		if len(e.Text) <= 2 {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		kept = append(kept, e)
	}

	// Rank by confidence; SliceStable preserves first-occurrence order for ties.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}
	entities := make([]string, len(kept))
	for i, e := range kept {
		entities[i] = e.Text
	}
	return entities
}

func (d *Deriver) deriveFeeds(query string) []string {
	feedCap := d.Config.FeedCap
	if feedCap <= 0 {
		feedCap = 40
	}

	queryLower := strings.ToLower(query)

	var feeds []string
	for _, topic := range d.Table.Topics {
		if topic.matches(queryLower) {
			feeds = append(feeds, topic.Feeds...)
		}
	}

	// General group always follows the topic matches, plus a query-scoped
	// Google News feed so a query with no topic match still has coverage.
	feeds = append(feeds, d.Table.General...)
	feeds = append(feeds, googleNewsFeed(query))

	seen := make(map[string]struct{}, len(feeds))
	deduped := feeds[:0]
	for _, f := range feeds {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		deduped = append(deduped, f)
	}

	if len(deduped) > feedCap {
		deduped = deduped[:feedCap]
	}
	return deduped
}

// googleNewsFeed builds a Google News RSS search feed for the query.
func googleNewsFeed(query string) string {
	q := url.QueryEscape(strings.Join(strings.Fields(query), " "))
	return "https://news.google.com/rss/search?q=" + q + "&hl=en-US&gl=US&ceid=US:en"
}
