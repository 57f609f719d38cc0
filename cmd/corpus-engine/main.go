// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the corpus-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/corpus-engine/internal/corpus"
	"github.com/pdiddy/corpus-engine/internal/discover"
	"github.com/pdiddy/corpus-engine/internal/embed"
	"github.com/pdiddy/corpus-engine/internal/ingest"
	"github.com/pdiddy/corpus-engine/internal/secrets"
	"github.com/pdiddy/corpus-engine/internal/seed"
	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/internal/summary"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the corpus-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "corpus-engine",
	Short: "Keep a local news corpus fresh for a query",
	Long: `corpus-engine maintains a local corpus of recent content relevant to a
query. One ensure call derives seed entities and feeds, discovers fresh
items over RSS and web search, ingests what is new, and rebuilds the
summary index once enough material has accumulated.

Each stage is inspectable through a subcommand: seeds, ensure, rebuild,
and store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./corpus-engine.yaml or ~/.config/corpus-engine/config.yaml)")
	rootCmd.PersistentFlags().String("corpus-dir", "", "base directory for the corpus database (default: ./corpus)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("corpus-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "corpus-engine"))
		}
	}

	viper.SetEnvPrefix("CORPUS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the pipeline configuration from the config file,
// environment, secrets, and flags. Unset keys stay zero and each stage
// applies its own defaults.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Seed: types.SeedConfig{
			EntityCap: viper.GetInt("seed.entity_cap"),
			FeedCap:   viper.GetInt("seed.feed_cap"),
		},
		Discovery: types.DiscoveryConfig{
			RecentDays:           viper.GetInt("discovery.recent_days"),
			MaxURLs:              viper.GetInt("discovery.max_urls"),
			PerFeedCap:           viper.GetInt("discovery.per_feed_cap"),
			MaxConcurrentFetches: viper.GetInt("discovery.max_concurrent_fetches"),
			Deadline:             viper.GetDuration("discovery.deadline"),
			FetchRate:            viper.GetFloat64("discovery.fetch_rate"),
			SearchEntityCap:      viper.GetInt("discovery.search_entity_cap"),
		},
		Ingestion: types.IngestionConfig{
			FetchTimeout:    viper.GetDuration("ingestion.fetch_timeout"),
			MaxConcurrent:   viper.GetInt("ingestion.max_concurrent"),
			ChunkSentences:  viper.GetInt("ingestion.chunk_sentences"),
			ChunkOverlap:    viper.GetInt("ingestion.chunk_overlap"),
			ChunkMaxChars:   viper.GetInt("ingestion.chunk_max_chars"),
			MinExtractChars: viper.GetInt("ingestion.min_extract_chars"),
			EmbedBaseURL:    viper.GetString("ingestion.embed_base_url"),
			EmbedModel:      viper.GetString("ingestion.embed_model"),
		},
		Summary: types.SummaryConfig{
			ThresholdDocs: viper.GetInt("summary.threshold_docs"),
			ThresholdAge:  viper.GetDuration("summary.threshold_age"),
			MaxChunks:     viper.GetInt("summary.max_chunks"),
			GroupTarget:   viper.GetInt("summary.group_target"),
		},
		Store: types.StoreConfig{
			CorpusDir: viper.GetString("corpus_dir"),
		},
		AutoIngest: true,
	}
	if viper.IsSet("auto_ingest") {
		cfg.AutoIngest = viper.GetBool("auto_ingest")
	}

	cfg.Discovery.UserAgent = viper.GetString("user_agent")
	if cfg.Discovery.UserAgent == "" {
		cfg.Discovery.UserAgent = "corpus-engine/" + version
	}
	if cfg.Ingestion.UserAgent == "" {
		cfg.Ingestion.UserAgent = cfg.Discovery.UserAgent
	}
	cfg.Discovery.ExaAPIKey = secrets.Get(loadedSecrets, "exa-api-key", viper.GetString("exa_api_key"))
	cfg.Discovery.SerpAPIKey = secrets.Get(loadedSecrets, "serpapi-api-key", viper.GetString("serpapi_api_key"))

	if dir, _ := cmd.Flags().GetString("corpus-dir"); dir != "" {
		cfg.Store.CorpusDir = dir
	}
	return cfg
}

// openStore opens the corpus store for the configured directory.
func openStore(cfg types.PipelineConfig) (*store.Store, error) {
	return store.Open(cfg.Store)
}

// buildPlanner wires the concrete pipeline collaborators. The caller owns
// the returned store and must close it.
func buildPlanner(cfg types.PipelineConfig) (*corpus.Planner, *store.Store, error) {
	deriver, err := seed.NewDeriver(seed.HeuristicExtractor{}, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	deduper, err := discover.NewDeduplicator(st, 0)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	providers := []discover.Provider{
		discover.NewExaProvider(cfg.Discovery.ExaAPIKey, cfg.Discovery.Timeout),
		discover.NewSerpAPIProvider(cfg.Discovery.SerpAPIKey, cfg.Discovery.Timeout),
	}
	embedder := embed.NewOllamaEmbedder(cfg.Ingestion.EmbedBaseURL, cfg.Ingestion.EmbedModel)

	planner := &corpus.Planner{
		Seeds:    deriver,
		Discover: discover.NewDiscoverer(cfg.Discovery, providers),
		Dedupe:   deduper,
		Ingest:   ingest.NewIngestor(cfg.Ingestion, embedder, st),
		Scheduler: &summary.Scheduler{
			Store:   st,
			Builder: &summary.Builder{Store: st, Embedder: embedder, Config: cfg.Summary},
			Config:  cfg.Summary,
		},
		Config: cfg,
	}
	return planner, st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
