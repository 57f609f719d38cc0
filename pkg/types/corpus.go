// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the corpus-engine pipeline.
package types

import "time"

// SourceChannel identifies the discovery pathway that produced an item.
type SourceChannel string

const (
	// ChannelFeed marks items pulled from an RSS/Atom feed.
	ChannelFeed SourceChannel = "feed"

	// ChannelSearch marks items returned by a web search provider.
	ChannelSearch SourceChannel = "search"
)

// SeedSet holds the derived entities and feed list driving discovery for one
// query. It is created once per orchestration call and never mutated.
type SeedSet struct {
	// Entities lists the top extracted entities, highest confidence first.
	Entities []string `json:"entities" yaml:"entities"`

	// Feeds lists deduplicated feed URLs, topic-matched feeds before the
	// general group. Never empty.
	Feeds []string `json:"feeds" yaml:"feeds"`
}

// DiscoveredItem is a candidate piece of content found by one of the
// discovery channels. It exists only for the duration of a call.
type DiscoveredItem struct {
	// URL is the item link and the unique key for deduplication.
	URL string `json:"url" yaml:"url"`

	// Title is the item headline as reported by the source.
	Title string `json:"title" yaml:"title"`

	// Summary is the feed summary or search snippet, used as the ingestion
	// fallback when full-page extraction fails.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// PublishedAt is the publication timestamp. Discovery guarantees it
	// lies within the recency window; the zero value means unknown
	// (search results without dates).
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// Source names the feed or provider that produced the item.
	Source string `json:"source" yaml:"source"`

	// Channel is the discovery pathway (feed or search).
	Channel SourceChannel `json:"channel" yaml:"channel"`
}

// Chunk is one embedded slice of a document.
type Chunk struct {
	// ID is the chunk identifier, derived from the document URL and index
	// (e.g. "https://example.com/a::c0003").
	ID string `json:"id" yaml:"id"`

	// Text is the chunk content.
	Text string `json:"text" yaml:"text"`

	// Index is the chunk position within the document.
	Index int `json:"index" yaml:"index"`

	// Embedding is the vector representation, populated by the embedder.
	Embedding []float32 `json:"-" yaml:"-"`
}

// Document is an ingested piece of content with its chunks. Once upserted
// the store owns the persisted record.
type Document struct {
	// ID is the document identifier; the normalized URL.
	ID string `json:"id" yaml:"id"`

	URL   string `json:"url" yaml:"url"`
	Host  string `json:"host" yaml:"host"`
	Title string `json:"title" yaml:"title"`

	PublishedAt time.Time     `json:"published_at" yaml:"published_at"`
	Source      string        `json:"source" yaml:"source"`
	Channel     SourceChannel `json:"channel" yaml:"channel"`

	// Text is the full cleaned content the chunks were cut from.
	Text string `json:"-" yaml:"-"`

	Chunks []Chunk `json:"chunks" yaml:"chunks"`
}

// IngestStats counts the outcome of one ingestion pass.
type IngestStats struct {
	// Docs is the number of documents successfully upserted.
	Docs int `json:"docs" yaml:"docs"`

	// Chunks is the total number of chunks produced across those documents.
	Chunks int `json:"chunks" yaml:"chunks"`

	// Failed is the number of items dropped after extraction and fallback
	// both failed, or whose upsert errored.
	Failed int `json:"failed" yaml:"failed"`

	// IngestedURLs lists the URLs behind Docs, used to prime the known-URL
	// cache after the pass. Not part of the report payload.
	IngestedURLs []string `json:"-" yaml:"-"`
}

// SummaryNode is one entry of the hierarchical summary index: an extractive
// summary of a group of chunks, embedded for retrieval.
type SummaryNode struct {
	// ID is a generated unique identifier.
	ID string `json:"id" yaml:"id"`

	// Level is the node's height in the summary hierarchy; leaf groups are
	// level 1.
	Level int `json:"level" yaml:"level"`

	// Content is the extractive summary text.
	Content string `json:"content" yaml:"content"`

	// ChunkIDs lists the chunks the node summarizes.
	ChunkIDs []string `json:"chunk_ids" yaml:"chunk_ids"`

	// Embedding is the vector representation of Content.
	Embedding []float32 `json:"-" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// StoreStats summarizes the persisted corpus.
type StoreStats struct {
	Docs         int `json:"docs" yaml:"docs"`
	Chunks       int `json:"chunks" yaml:"chunks"`
	SummaryNodes int `json:"summary_nodes" yaml:"summary_nodes"`
	GraphLinks   int `json:"graph_links" yaml:"graph_links"`

	// LastRebuild is the completion time of the last successful summary
	// index rebuild; zero if none has run.
	LastRebuild time.Time `json:"last_rebuild" yaml:"last_rebuild"`
}

// CorpusUpdateReport is the best-effort outcome of one EnsureCorpus call.
// Every exit path of the orchestrator yields one; it is never retained.
type CorpusUpdateReport struct {
	// Query is the input query the corpus was freshened for.
	Query string `json:"query" yaml:"query"`

	// Seeds is the derived seed set.
	Seeds SeedSet `json:"seeds" yaml:"seeds"`

	// FreshItemsFound counts unique new items after deduplication and
	// corpus exclusion.
	FreshItemsFound int `json:"fresh_items_found" yaml:"fresh_items_found"`

	// Ingested holds the ingestion counts.
	Ingested IngestStats `json:"ingested" yaml:"ingested"`

	// RebuildTriggered reports whether the summary index rebuild ran and
	// completed for this call.
	RebuildTriggered bool `json:"rebuild_triggered" yaml:"rebuild_triggered"`
}
