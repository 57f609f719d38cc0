// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/corpus-engine/internal/embed"
	"github.com/pdiddy/corpus-engine/internal/summary"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the summary index",
	Long: `Rebuild runs the summary index builder over documents ingested since
the last rebuild, regardless of the accumulation threshold. With --status
it only prints the current rebuild state.`,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	ctx := context.Background()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	last, err := st.LastRebuildTime(ctx)
	if err != nil {
		return err
	}

	if statusOnly, _ := cmd.Flags().GetBool("status"); statusOnly {
		if last.IsZero() {
			fmt.Println("summary index has never been rebuilt")
		} else {
			fmt.Printf("last rebuild: %s (%s ago)\n",
				last.Format(time.RFC3339), time.Since(last).Round(time.Second))
		}
		return nil
	}

	builder := &summary.Builder{
		Store:    st,
		Embedder: embed.NewOllamaEmbedder(cfg.Ingestion.EmbedBaseURL, cfg.Ingestion.EmbedModel),
		Config:   cfg.Summary,
	}

	started := time.Now()
	nodes, err := builder.Rebuild(ctx, last)
	if err != nil {
		return err
	}
	if err := st.SetLastRebuildTime(ctx, started); err != nil {
		return err
	}

	fmt.Printf("summary index rebuilt (%d nodes)\n", nodes)
	return nil
}

func init() {
	rebuildCmd.Flags().Bool("status", false, "show rebuild state without rebuilding")

	rootCmd.AddCommand(rebuildCmd)
}
