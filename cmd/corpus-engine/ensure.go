// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var ensureCmd = &cobra.Command{
	Use:   "ensure [query]",
	Short: "Freshen the corpus for a query",
	Long: `Ensure derives seeds from the query, discovers fresh items over the
seed feeds and web search, ingests what is not already stored, and rebuilds
the summary index when the accumulation threshold is met.

The command is best-effort: unreachable feeds, providers, and pages are
skipped with warnings and the run always ends with a report.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnsure,
}

func runEnsure(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	cfg := pipelineConfig(cmd)

	if v, _ := cmd.Flags().GetInt("recent-days"); v > 0 {
		cfg.Discovery.RecentDays = v
	}
	if v, _ := cmd.Flags().GetInt("max-urls"); v > 0 {
		cfg.Discovery.MaxURLs = v
	}
	if noIngest, _ := cmd.Flags().GetBool("no-ingest"); noIngest {
		cfg.AutoIngest = false
	}

	planner, st, err := buildPlanner(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	report := planner.EnsureCorpus(context.Background(), query, os.Stderr)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("query:            %s\n", report.Query)
	fmt.Printf("entities:         %s\n", strings.Join(report.Seeds.Entities, ", "))
	fmt.Printf("feeds:            %d\n", len(report.Seeds.Feeds))
	fmt.Printf("fresh items:      %d\n", report.FreshItemsFound)
	fmt.Printf("ingested:         %d docs, %d chunks (%d failed)\n",
		report.Ingested.Docs, report.Ingested.Chunks, report.Ingested.Failed)
	fmt.Printf("rebuild triggered: %v\n", report.RebuildTriggered)
	return nil
}

func init() {
	ensureCmd.Flags().Int("recent-days", 0, "recency window in days (default 14)")
	ensureCmd.Flags().Int("max-urls", 0, "maximum unique items per run (default 200)")
	ensureCmd.Flags().Bool("no-ingest", false, "discover and report only, skip ingestion")
	ensureCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(ensureCmd)
}
