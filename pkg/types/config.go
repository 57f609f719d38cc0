// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "corpus-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SeedConfig holds settings for the seed derivation stage.
type SeedConfig struct {
	// EntityCap is the maximum number of entities kept per query (default 5).
	EntityCap int `json:"entity_cap" yaml:"entity_cap"`

	// FeedCap is the maximum number of feeds in a seed set (default 40).
	FeedCap int `json:"feed_cap" yaml:"feed_cap"`
}

// DiscoveryConfig holds settings for the source discovery stage.
type DiscoveryConfig struct {
	HTTPConfig `yaml:",inline"`

	// RecentDays is the recency window in days for discovered items (default 14).
	RecentDays int `json:"recent_days" yaml:"recent_days"`

	// MaxURLs is the overall quota of unique items per call (default 200).
	MaxURLs int `json:"max_urls" yaml:"max_urls"`

	// PerFeedCap is the maximum number of items collected from one feed (default 25).
	PerFeedCap int `json:"per_feed_cap" yaml:"per_feed_cap"`

	// MaxConcurrentFetches bounds concurrent feed and search requests (default 8).
	MaxConcurrentFetches int `json:"max_concurrent_fetches" yaml:"max_concurrent_fetches"`

	// Deadline is the wall-clock limit for the whole discovery step (default 30s).
	// Partial results gathered before the deadline are kept.
	Deadline time.Duration `json:"deadline" yaml:"deadline"`

	// FetchRate is the per-host request rate for feed pulls, in requests
	// per second (default 4).
	FetchRate float64 `json:"fetch_rate" yaml:"fetch_rate"`

	// SearchEntityCap is the number of top entities used to build search
	// queries when the feed channel leaves quota unmet (default 3).
	SearchEntityCap int `json:"search_entity_cap" yaml:"search_entity_cap"`

	// ExaAPIKey is the key for the primary search provider.
	ExaAPIKey string `json:"exa_api_key,omitempty" yaml:"exa_api_key,omitempty"`

	// SerpAPIKey is the key for the secondary search provider.
	SerpAPIKey string `json:"serp_api_key,omitempty" yaml:"serp_api_key,omitempty"`
}

// IngestionConfig holds settings for the content ingestion stage.
type IngestionConfig struct {
	HTTPConfig `yaml:",inline"`

	// FetchTimeout bounds a single page extraction (default 10s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`

	// MaxConcurrent bounds concurrent item ingestions (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// ChunkSentences is the sentence window size per chunk (default 6).
	ChunkSentences int `json:"chunk_sentences" yaml:"chunk_sentences"`

	// ChunkOverlap is the sentence overlap between consecutive chunks (default 2).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// ChunkMaxChars caps a single chunk's length (default 1600).
	ChunkMaxChars int `json:"chunk_max_chars" yaml:"chunk_max_chars"`

	// MinExtractChars is the minimum full-page text length before the
	// extraction falls back to the item summary (default 200).
	MinExtractChars int `json:"min_extract_chars" yaml:"min_extract_chars"`

	// EmbedBaseURL is the embedding service endpoint (e.g. an Ollama host).
	EmbedBaseURL string `json:"embed_base_url" yaml:"embed_base_url"`

	// EmbedModel is the embedding model identifier.
	EmbedModel string `json:"embed_model" yaml:"embed_model"`
}

// SummaryConfig holds settings for the summary index rebuild stage.
type SummaryConfig struct {
	// ThresholdDocs triggers a rebuild once at least this many documents
	// were ingested in one call (default 10).
	ThresholdDocs int `json:"threshold_docs" yaml:"threshold_docs"`

	// ThresholdAge triggers a rebuild once the index is older than this
	// regardless of ingestion volume (default 6h).
	ThresholdAge time.Duration `json:"threshold_age" yaml:"threshold_age"`

	// MaxChunks bounds the number of chunks one incremental rebuild
	// considers (default 500).
	MaxChunks int `json:"max_chunks" yaml:"max_chunks"`

	// GroupTarget is the preferred number of chunks per summary node (default 24).
	GroupTarget int `json:"group_target" yaml:"group_target"`
}

// StoreConfig holds settings for the corpus store.
type StoreConfig struct {
	// CorpusDir is the base directory for the corpus (contains corpus.db).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Seed      SeedConfig      `json:"seed" yaml:"seed"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Ingestion IngestionConfig `json:"ingestion" yaml:"ingestion"`
	Summary   SummaryConfig   `json:"summary" yaml:"summary"`
	Store     StoreConfig     `json:"store" yaml:"store"`

	// AutoIngest gates the corpus-freshening step before retrieval (default true).
	AutoIngest bool `json:"auto_ingest" yaml:"auto_ingest"`
}
