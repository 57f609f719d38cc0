// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the corpus store",
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus counts and rebuild state",
	RunE:  runStoreStats,
}

func runStoreStats(cmd *cobra.Command, args []string) error {
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("documents:     %d\n", stats.Docs)
	fmt.Printf("chunks:        %d\n", stats.Chunks)
	fmt.Printf("summary nodes: %d\n", stats.SummaryNodes)
	fmt.Printf("graph links:   %d\n", stats.GraphLinks)
	if stats.LastRebuild.IsZero() {
		fmt.Println("last rebuild:  never")
	} else {
		fmt.Printf("last rebuild:  %s\n", stats.LastRebuild.Format(time.RFC3339))
	}
	return nil
}

var storeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Keyword search over stored chunk text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStoreSearch,
}

func runStoreSearch(cmd *cobra.Command, args []string) error {
	st, err := openStore(pipelineConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	hits, err := st.SearchChunks(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%d. %s\n   %s\n   %s\n", i+1, h.Title, h.URL, h.Snippet)
	}
	return nil
}

func init() {
	storeSearchCmd.Flags().Int("limit", 10, "maximum results")

	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeSearchCmd)
	rootCmd.AddCommand(storeCmd)
}
