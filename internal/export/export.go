// Package export writes monitor tables and generated reports to files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/Yates-Labs/auditbot/internal/dataset"
)

// Format represents supported export formats
type Format string

const (
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
	FormatMarkdown Format = "md"
)

// Row is the tabular projection of one evaluated call.
type Row struct {
	ID                       string   `json:"id_llamada_procesada"`
	Dataset                  string   `json:"dataset"`
	CallDate                 string   `json:"fecha_llamada,omitempty"`
	Phone                    string   `json:"celular,omitempty"`
	PrecisionLlamada         *float64 `json:"precision_llamada"`
	ErrorCriticoCliente      *bool    `json:"precision_error_critico_cliente"`
	ErrorCriticoNegocio      *bool    `json:"precision_error_critico_negocio"`
	ErrorCriticoCumplimiento *bool    `json:"precision_error_critico_cumplimiento"`
	ErrorNoCritico           *bool    `json:"precision_error_no_critico"`
	HasTranscript            bool     `json:"tiene_transcripcion"`
}

// Summary aggregates rows for the monitor header and the summary sheet.
type Summary struct {
	Calls           int      `json:"total_llamadas"`
	WithPrecision   int      `json:"con_precision"`
	AvgPrecision    *float64 `json:"precision_promedio"`
	WithTranscript  int      `json:"con_transcripcion"`
	ErrorsCliente   int      `json:"errores_criticos_cliente"`
	ErrorsNegocio   int      `json:"errores_criticos_negocio"`
	ErrorsCumplim   int      `json:"errores_criticos_cumplimiento"`
	ErrorsNoCritico int      `json:"errores_no_criticos"`
}

// RowsFromRecords normalizes each record into a row, keeping input order.
func RowsFromRecords(records []dataset.Record) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		n := dataset.Normalize(r.Evaluation)
		rows[i] = Row{
			ID:                       r.ID,
			Dataset:                  r.Dataset,
			CallDate:                 r.CallDate,
			Phone:                    r.Phone,
			PrecisionLlamada:         n.Metrics.PrecisionLlamada,
			ErrorCriticoCliente:      n.Metrics.ErrorCriticoCliente,
			ErrorCriticoNegocio:      n.Metrics.ErrorCriticoNegocio,
			ErrorCriticoCumplimiento: n.Metrics.ErrorCriticoCumplimiento,
			ErrorNoCritico:           n.Metrics.ErrorNoCritico,
			HasTranscript:            strings.TrimSpace(n.Transcript) != "",
		}
	}
	return rows
}

// Summarize counts calls, transcripts and findings. A flag counts as a finding
// when it is true.
func Summarize(rows []Row) Summary {
	s := Summary{Calls: len(rows)}
	var total float64
	for _, r := range rows {
		if r.PrecisionLlamada != nil {
			s.WithPrecision++
			total += *r.PrecisionLlamada
		}
		if r.HasTranscript {
			s.WithTranscript++
		}
		s.ErrorsCliente += flagCount(r.ErrorCriticoCliente)
		s.ErrorsNegocio += flagCount(r.ErrorCriticoNegocio)
		s.ErrorsCumplim += flagCount(r.ErrorCriticoCumplimiento)
		s.ErrorsNoCritico += flagCount(r.ErrorNoCritico)
	}
	if s.WithPrecision > 0 {
		avg := math.Round(total/float64(s.WithPrecision)*100) / 100
		s.AvgPrecision = &avg
	}
	return s
}

func flagCount(b *bool) int {
	if b != nil && *b {
		return 1
	}
	return 0
}

// FormatFromPath infers the export format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "json":
		return FormatJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q (supported: json, xlsx, md)", ext)
	}
}

// ExportRows writes monitor rows as json or xlsx.
func ExportRows(rows []Row, format Format, writer io.Writer) error {
	switch format {
	case FormatJSON:
		return exportJSON(rows, writer)
	case FormatXLSX:
		return exportXLSX(rows, writer)
	default:
		return fmt.Errorf("unsupported export format for rows: %s (supported: json, xlsx)", format)
	}
}

// exportJSON writes rows as indented JSON
func exportJSON(rows []Row, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(rows)
}

// ExportReport writes a generated report as a Markdown document.
func ExportReport(datasetName, report string, generatedAt time.Time, writer io.Writer) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Informe de Análisis Estratégico: %s\n\n", datasetName))
	b.WriteString(fmt.Sprintf("_Generado: %s_\n\n", generatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(strings.TrimSpace(report))
	b.WriteString("\n")
	_, err := io.WriteString(writer, b.String())
	return err
}
