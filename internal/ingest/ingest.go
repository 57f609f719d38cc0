// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns discovered URLs into stored, chunked, embedded
// documents. Each item is processed independently: a failure is reported
// and skipped, never propagated. Items that survived the discovery window
// are ingested as-is; no date filtering happens here.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/corpus-engine/internal/seed"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Embedder produces one vector per input text.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore persists ingested documents and their entity links.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, doc *types.Document) error
	LinkEntities(ctx context.Context, docID string, entities []string) error
}

// Ingestor runs the ingestion phase. Writes for the same URL are serialized
// through a per-URL lock so concurrent runs cannot interleave a document's
// delete and insert.
type Ingestor struct {
	Fetcher   *Fetcher
	Embedder  Embedder
	Store     DocumentStore
	Extractor seed.EntityExtractor
	Config    types.IngestionConfig

	mu       sync.Mutex
	urlLocks map[string]*sync.Mutex
}

// NewIngestor wires an ingestor from one config. Graph links come from the
// capitalization heuristic over chunk text.
func NewIngestor(cfg types.IngestionConfig, embedder Embedder, store DocumentStore) *Ingestor {
	return &Ingestor{
		Fetcher:   NewFetcher(cfg),
		Embedder:  embedder,
		Store:     store,
		Extractor: seed.HeuristicExtractor{},
		Config:    cfg,
		urlLocks:  make(map[string]*sync.Mutex),
	}
}

func (ing *Ingestor) urlLock(u string) *sync.Mutex {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	l, ok := ing.urlLocks[u]
	if !ok {
		l = &sync.Mutex{}
		ing.urlLocks[u] = l
	}
	return l
}

// IngestAll processes every item with bounded concurrency and returns
// aggregate counts. Entities from the seed set are linked to each document
// they appear in. Progress and failures go to w.
func (ing *Ingestor) IngestAll(ctx context.Context, items []types.DiscoveredItem, entities []string, w io.Writer) types.IngestStats {
	concurrency := ing.Config.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 4
	}

	var (
		statsMu sync.Mutex
		stats   types.IngestStats
		outMu   sync.Mutex
	)
	sem := semaphore.NewWeighted(int64(concurrency))
	g, ctx := errgroup.WithContext(ctx)

	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			doc, err := ing.ingestOne(ctx, item)

			outMu.Lock()
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", item.URL, err)
			} else {
				fmt.Fprintf(w, "ingested %s (%d chunks)\n", doc.URL, len(doc.Chunks))
				// Graph linking is best-effort: a link failure never fails
				// the item.
				if linked := ing.docEntities(doc, entities); len(linked) > 0 {
					if linkErr := ing.Store.LinkEntities(ctx, doc.ID, linked); linkErr != nil {
						fmt.Fprintf(w, "warning: linking entities for %s: %v\n", doc.URL, linkErr)
					}
				}
			}
			outMu.Unlock()

			statsMu.Lock()
			if err != nil {
				stats.Failed++
			} else {
				stats.Docs++
				stats.Chunks += len(doc.Chunks)
				stats.IngestedURLs = append(stats.IngestedURLs, doc.URL)
			}
			statsMu.Unlock()
			return nil
		})
	}
	g.Wait()
	return stats
}

// ingestOne fetches, extracts, chunks, embeds, and stores a single item.
// When page extraction yields too little text, the item's feed title and
// summary stand in; when even that is trash, the item is dropped.
func (ing *Ingestor) ingestOne(ctx context.Context, item types.DiscoveredItem) (*types.Document, error) {
	lock := ing.urlLock(item.URL)
	lock.Lock()
	defer lock.Unlock()

	minChars := ing.Config.MinExtractChars
	if minChars <= 0 {
		minChars = 200
	}

	title, text := item.Title, ""
	if html, err := ing.Fetcher.Fetch(ctx, item.URL); err == nil {
		extractedTitle, extracted, err := Extract(html)
		if err == nil {
			text = normalizeText(extracted)
			if extractedTitle != "" {
				title = extractedTitle
			}
		}
	}

	if len(text) < minChars || isTrash(text) {
		fallback := normalizeText(strings.TrimSpace(item.Title + "\n\n" + item.Summary))
		if fallback == "" || isTrash(fallback) {
			return nil, fmt.Errorf("no usable text")
		}
		text = fallback
		title = item.Title
	}

	chunks := ChunkText(item.URL, text, ing.Config)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ing.Embedder.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	doc := &types.Document{
		ID:          item.URL,
		URL:         item.URL,
		Host:        hostOf(item.URL),
		Title:       title,
		PublishedAt: item.PublishedAt,
		Source:      item.Source,
		Channel:     item.Channel,
		Text:        text,
		Chunks:      chunks,
	}
	if err := ing.Store.UpsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}
	return doc, nil
}

// docEntities collects the entities to link a document under: seed entities
// the document mentions, then entities extracted from each chunk's text.
// Extraction reaches beyond the seed set, so a page about an organization
// the query never named still lands in the graph.
func (ing *Ingestor) docEntities(doc *types.Document, seedEntities []string) []string {
	linked := mentionedEntities(doc.Text, doc.Title, seedEntities)
	if ing.Extractor == nil {
		return linked
	}

	seen := make(map[string]struct{}, len(linked))
	for _, e := range linked {
		seen[strings.ToLower(e)] = struct{}{}
	}
	for _, c := range doc.Chunks {
		for _, ent := range ing.Extractor.Entities(c.Text) {
			key := strings.ToLower(ent.Text)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			linked = append(linked, ent.Text)
		}
	}
	return linked
}

// mentionedEntities returns the seed entities that appear in the document,
// preserving seed order.
func mentionedEntities(text, title string, entities []string) []string {
	haystack := strings.ToLower(title + "\n" + text)
	var mentioned []string
	for _, e := range entities {
		if e == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(e)) {
			mentioned = append(mentioned, e)
		}
	}
	return mentioned
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
