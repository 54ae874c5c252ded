package cmd

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	indexDataset string
	indexForce   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed call evaluations into the Milvus evaluation index",
	Long: `Embed the eligible calls of one or all datasets and store them in Milvus so
"auditbot chat --retrieve" can narrow the context to similar calls.

Calls already indexed are skipped unless --force is given.

Required environment variables:
  OPENAI_API_KEY     - OpenAI API key for embeddings
  MILVUS_ADDRESS     - Milvus server address (default: localhost:19530)

Examples:
  auditbot index
  auditbot index --dataset Servicios --force`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexDataset, "dataset", "", "Dataset to index (default: all)")
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "Re-embed calls that are already indexed")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	assistant, _, _, err := setup(ctx, orchestrator.BuildOptions{Retrieval: true})
	if err != nil {
		return err
	}
	defer assistant.Close()

	fmt.Println(mutedStyle.Render("→ Indexing evaluations..."))
	stats, err := assistant.Index(ctx, indexDataset, indexForce)
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Indexed %d calls in %d batches (%d already indexed)", stats.Indexed, stats.Batches, stats.Skipped)))

	if info, err := assistant.IndexInfo(ctx); err == nil {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("Collection %v: %v rows", info["collection"], info["row_count"])))
	}
	return nil
}
