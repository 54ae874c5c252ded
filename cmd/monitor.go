package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/export"
	"github.com/Yates-Labs/auditbot/internal/inspect"
	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	monitorDataset  string
	monitorLimit    int
	monitorCall     string
	monitorAudioOut string
	monitorExport   string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "List evaluated calls or inspect one call",
	Long: `List the evaluated calls of a dataset with their quality metrics.

With --call, shows the detail of one call: metrics, transcript, the remaining
evaluation fields and whether its recording could be fetched.

Examples:
  auditbot monitor --dataset Servicios
  auditbot monitor --dataset Bloqueos --export bloqueos.xlsx
  auditbot monitor --dataset Servicios --call S-100 --audio-out s100.mp3`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorDataset, "dataset", "", "Dataset to show (default: first configured)")
	monitorCmd.Flags().IntVar(&monitorLimit, "limit", 0, "Maximum calls to list (0 = all)")
	monitorCmd.Flags().StringVar(&monitorCall, "call", "", "Show the detail of one call id")
	monitorCmd.Flags().StringVar(&monitorAudioOut, "audio-out", "", "Write the call recording to this file (with --call)")
	monitorCmd.Flags().StringVar(&monitorExport, "export", "", "Export the listed calls: --export <file.json|file.xlsx>")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	assistant, _, _, err := setup(ctx, orchestrator.BuildOptions{})
	if err != nil {
		return err
	}
	defer assistant.Close()

	if monitorCall != "" {
		return runInspect(ctx, assistant)
	}

	view := assistant.Monitor(monitorDataset, monitorLimit)
	printWarnings(view.Warnings)

	if monitorExport != "" {
		return exportCalls(view, monitorExport)
	}

	if len(view.Rows) == 0 {
		fmt.Println(mutedStyle.Render(orchestrator.NoRecordsMessage))
		return nil
	}
	printCallTable(view)
	return nil
}

func exportCalls(view orchestrator.MonitorView, filename string) error {
	format, err := export.FormatFromPath(filename)
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := export.ExportRows(view.Rows, format, file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Exported %d calls from %s to %s", len(view.Rows), view.Dataset, filename)))
	return nil
}

func printCallTable(view orchestrator.MonitorView) {
	// Column widths
	const (
		idWidth        = 24
		precisionWidth = 11
		flagWidth      = 10
		dateWidth      = 22
	)

	cell := func(width int, color lipgloss.Color, align lipgloss.Position) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(color).Padding(0, 1).Width(width).Align(align)
	}
	head := headerStyle.Padding(0, 1)

	printHeader("Monitor: "+view.Dataset, "")

	headers := []string{
		head.Width(idWidth).Render("LLAMADA"),
		head.Width(precisionWidth).Render("PRECISIÓN"),
		head.Width(flagWidth).Render("CLIENTE"),
		head.Width(flagWidth).Render("NEGOCIO"),
		head.Width(flagWidth).Render("CUMPLIM."),
		head.Width(flagWidth).Render("NO CRÍT."),
		head.Width(dateWidth).Render("FECHA"),
	}
	fmt.Println(strings.Join(headers, borderStyle.Render("│")))
	fmt.Println(separator(idWidth, precisionWidth, flagWidth, flagWidth, flagWidth, flagWidth, dateWidth))

	for _, row := range view.Rows {
		cells := []string{
			cell(idWidth, accentColor, lipgloss.Left).Render(row.ID),
			cell(precisionWidth, numberColor, lipgloss.Right).Render(formatPrecision(row.PrecisionLlamada)),
			cell(flagWidth, textColor, lipgloss.Center).Render(formatFlag(row.ErrorCriticoCliente)),
			cell(flagWidth, textColor, lipgloss.Center).Render(formatFlag(row.ErrorCriticoNegocio)),
			cell(flagWidth, textColor, lipgloss.Center).Render(formatFlag(row.ErrorCriticoCumplimiento)),
			cell(flagWidth, textColor, lipgloss.Center).Render(formatFlag(row.ErrorNoCritico)),
			cell(dateWidth, textColor, lipgloss.Left).Render(orDash(row.CallDate)),
		}
		fmt.Println(strings.Join(cells, borderStyle.Render("│")))
	}

	s := view.Summary
	fmt.Println()
	summary := fmt.Sprintf("Total: %d calls, %d with transcript, average precision %s, critical errors %d/%d/%d, non-critical %d",
		s.Calls, s.WithTranscript, formatPrecision(s.AvgPrecision),
		s.ErrorsCliente, s.ErrorsNegocio, s.ErrorsCumplim, s.ErrorsNoCritico)
	fmt.Println(lipgloss.NewStyle().Foreground(accentColor).Italic(true).Render(summary))
}

func runInspect(ctx context.Context, assistant *orchestrator.Assistant) error {
	detail, warnings, err := assistant.Inspect(ctx, monitorDataset, monitorCall)
	printWarnings(warnings)
	if err != nil {
		return fmt.Errorf("%s: %w", monitorCall, err)
	}

	printHeader("Llamada "+detail.ID, detail.Dataset)
	fmt.Println(textStyle.Render(fmt.Sprintf("Celular: %s   Fecha: %s", detail.Phone, detail.CallDate)))
	fmt.Println()

	for _, m := range detail.Metrics {
		label := lipgloss.NewStyle().Foreground(mutedColor).Width(40).Render(m.Label)
		fmt.Println(label + lipgloss.NewStyle().Foreground(numberColor).Render(m.Value))
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Transcripción"))
	fmt.Println(textStyle.Render(detail.Transcript))

	if len(detail.Payload) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("Evaluación"))
		keys := make([]string, 0, len(detail.Payload))
		for k := range detail.Payload {
			if k == "transcripcion" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s %v\n", mutedStyle.Render(k+":"), detail.Payload[k])
		}
	}

	fmt.Println()
	return writeAudio(detail)
}

func writeAudio(detail inspect.Detail) error {
	if !detail.HasAudio() {
		if detail.AudioNote != "" {
			fmt.Println(warnStyle.Render(detail.AudioNote))
		}
		return nil
	}
	if monitorAudioOut == "" {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("Audio disponible (%d bytes): use --audio-out para guardarlo", len(detail.Audio))))
		return nil
	}
	if err := os.WriteFile(monitorAudioOut, detail.Audio, 0o644); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	fmt.Println(successStyle.Render("✓ Audio written to " + monitorAudioOut))
	return nil
}

func formatPrecision(v *float64) string {
	if v == nil {
		return inspect.NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func formatFlag(b *bool) string {
	switch {
	case b == nil:
		return "-"
	case *b:
		return "Sí"
	default:
		return "No"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
