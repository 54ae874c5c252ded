package cmd

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/Yates-Labs/auditbot/internal/prompt"
	"github.com/spf13/cobra"
)

var (
	insightsDataset string
	insightsLimit   int
	summaryChars    int
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Condense a dataset's evaluations into a short summary",
	RunE:  runSummarize,
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Count positive, negative and neutral calls in a dataset",
	RunE:  runSentiment,
}

var biCmd = &cobra.Command{
	Use:   "bi",
	Short: "Print the link to the embedded BI report",
	RunE: func(cmd *cobra.Command, args []string) error {
		assistant, _, _, err := setup(context.Background(), orchestrator.BuildOptions{Offline: true})
		if err != nil {
			return err
		}
		defer assistant.Close()
		fmt.Println(accentStyle.Render(assistant.BIReportURL()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd, sentimentCmd, biCmd)
	for _, c := range []*cobra.Command{summarizeCmd, sentimentCmd} {
		c.Flags().StringVar(&insightsDataset, "dataset", "", "Dataset to analyze (default: first configured)")
		c.Flags().IntVar(&insightsLimit, "limit", 0, "Maximum calls in the context (0 = configured default)")
	}
	summarizeCmd.Flags().IntVar(&summaryChars, "max-chars", prompt.DefaultSummaryChars, "Approximate summary length in characters")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	assistant, _, _, err := setup(ctx, orchestrator.BuildOptions{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	view := assistant.Summarize(ctx, insightsDataset, insightsLimit, summaryChars)
	printWarnings(view.Warnings)
	printHeader("Resumen: "+view.Dataset, fmt.Sprintf("%d calls", view.Records))
	if !view.OK {
		fmt.Println(errorStyle.Render(view.Summary))
		return nil
	}
	fmt.Println(textStyle.Render(view.Summary))
	fmt.Println()
	return nil
}

func runSentiment(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	assistant, _, _, err := setup(ctx, orchestrator.BuildOptions{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	view := assistant.Sentiment(ctx, insightsDataset, insightsLimit)
	printWarnings(view.Warnings)
	printHeader("Sentimiento: "+view.Dataset, fmt.Sprintf("%d calls", view.Records))
	if !view.OK {
		fmt.Println(errorStyle.Render(view.Message))
		return nil
	}

	s := view.Sentiment
	fmt.Println(successStyle.Render(fmt.Sprintf("Positivas: %d", s.Positive)))
	fmt.Println(errorStyle.Render(fmt.Sprintf("Negativas: %d", s.Negative)))
	fmt.Println(textStyle.Render(fmt.Sprintf("Neutrales: %d", s.Neutral)))
	fmt.Println()
	fmt.Println(accentStyle.Render("Tendencia: " + s.Trend))
	fmt.Println()
	return nil
}
