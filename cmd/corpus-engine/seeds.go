// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/seed"
)

var seedsCmd = &cobra.Command{
	Use:   "seeds [query]",
	Short: "Show the seed set a query would produce",
	Long: `Seeds runs only the derivation stage: extracted entities, matched
topics, and the feed list, without touching the network or the corpus.
Useful for checking what a query would pull before running ensure.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeeds,
}

func runSeeds(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	cfg := pipelineConfig(cmd)

	deriver, err := seed.NewDeriver(seed.HeuristicExtractor{}, cfg.Seed)
	if err != nil {
		return err
	}
	seeds, err := deriver.Derive(context.Background(), query)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(seeds)
	}

	table, err := seed.LoadFeedTable()
	if err != nil {
		return err
	}
	topics := table.TopicsFor(query)

	fmt.Printf("query:    %s\n", query)
	fmt.Printf("entities: %s\n", strings.Join(seeds.Entities, ", "))
	fmt.Printf("topics:   %s\n", strings.Join(topics, ", "))
	fmt.Printf("feeds:    %d\n", len(seeds.Feeds))
	for _, f := range seeds.Feeds {
		fmt.Printf("  %s\n", f)
	}
	return nil
}

func init() {
	seedsCmd.Flags().Bool("json", false, "output the seed set as JSON")

	rootCmd.AddCommand(seedsCmd)
}
