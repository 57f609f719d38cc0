// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus orchestrates corpus freshening: derive seeds for a query,
// discover fresh items, drop what is duplicate or already stored, ingest the
// rest, and rebuild the summary index when enough has accumulated. The
// pipeline is best-effort end to end: every stage degrades to an empty
// result and the call always produces a report.
package corpus

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

// SeedDeriver derives the seed set for a query.
type SeedDeriver interface {
	Derive(ctx context.Context, query string) (types.SeedSet, error)
}

// ItemDiscoverer pulls fresh candidate items for a seed set.
type ItemDiscoverer interface {
	Discover(ctx context.Context, seeds types.SeedSet, w io.Writer) []types.DiscoveredItem
}

// ItemDeduplicator filters a discovery batch down to novel items and learns
// which URLs were ingested so later batches skip them cheaply.
type ItemDeduplicator interface {
	Dedupe(ctx context.Context, items []types.DiscoveredItem, max int, w io.Writer) []types.DiscoveredItem
	MarkIngested(urls []string)
}

// ItemIngestor ingests discovered items into the corpus.
type ItemIngestor interface {
	IngestAll(ctx context.Context, items []types.DiscoveredItem, entities []string, w io.Writer) types.IngestStats
}

// RebuildScheduler decides whether the summary index is rebuilt after an
// ingest pass.
type RebuildScheduler interface {
	MaybeRebuild(ctx context.Context, docsIngested int, w io.Writer) bool
}

// Planner runs the corpus freshening pipeline.
type Planner struct {
	Seeds     SeedDeriver
	Discover  ItemDiscoverer
	Dedupe    ItemDeduplicator
	Ingest    ItemIngestor
	Scheduler RebuildScheduler
	Config    types.PipelineConfig
}

// EnsureCorpus freshens the corpus for one query and reports what happened.
// It never returns an error: a failing stage is warned to w, its result is
// treated as empty, and the pipeline continues. A total failure yields a
// report of zeroes.
func (p *Planner) EnsureCorpus(ctx context.Context, query string, w io.Writer) (report *types.CorpusUpdateReport) {
	report = &types.CorpusUpdateReport{Query: query}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(w, "warning: corpus update aborted: %v\n", r)
		}
	}()

	seeds, err := p.Seeds.Derive(ctx, query)
	if err != nil {
		fmt.Fprintf(w, "warning: seed derivation failed: %v\n", err)
	}
	report.Seeds = seeds

	items := p.Discover.Discover(ctx, seeds, w)

	maxURLs := p.Config.Discovery.MaxURLs
	if maxURLs <= 0 {
		maxURLs = 200
	}
	fresh := p.Dedupe.Dedupe(ctx, items, maxURLs, w)
	report.FreshItemsFound = len(fresh)

	if p.Config.AutoIngest && len(fresh) > 0 {
		report.Ingested = p.Ingest.IngestAll(ctx, fresh, seeds.Entities, w)
		if len(report.Ingested.IngestedURLs) > 0 {
			p.Dedupe.MarkIngested(report.Ingested.IngestedURLs)
		}
	}

	report.RebuildTriggered = p.Scheduler.MaybeRebuild(ctx, report.Ingested.Docs, w)
	return report
}
