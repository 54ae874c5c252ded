package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Yates-Labs/auditbot/internal/export"
	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	reportDataset string
	reportLimit   int
	reportOut     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the strategic report for a dataset",
	Long: `Answer the predefined business questions of a dataset in a single report.

Examples:
  auditbot report --dataset Retención
  auditbot report --dataset Servicios --out servicios.md`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportDataset, "dataset", "", "Dataset to report on (default: first configured)")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "Maximum calls in the context (0 = configured default)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Write the report as Markdown to this file")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	assistant, _, _, err := setup(ctx, orchestrator.BuildOptions{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	fmt.Println(mutedStyle.Render("→ Generating report..."))
	view := assistant.Report(ctx, reportDataset, reportLimit)
	printWarnings(view.Warnings)

	printHeader("Informe de Análisis Estratégico: "+view.Dataset, fmt.Sprintf("%d calls, %d questions", view.Records, len(view.Questions)))
	if !view.OK {
		fmt.Println(errorStyle.Render(view.Report))
		return nil
	}
	fmt.Println(textStyle.Render(view.Report))
	fmt.Println()

	if reportOut == "" {
		return nil
	}
	file, err := os.Create(reportOut)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := export.ExportReport(view.Dataset, view.Report, view.GeneratedAt, file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Println(successStyle.Render("✓ Report written to " + reportOut))
	return nil
}
