package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []dataset.Record {
	return []dataset.Record{
		{
			ID:       "S-1",
			Dataset:  "Servicios",
			CallDate: "2025-06-01",
			Phone:    "3001234567",
			Evaluation: dataset.TextEvaluation(`{"precision_llamada": "90", "precision_error_critico_cliente": "Sí",
				"precision_error_no_critico": false, "transcripcion": "Agente: hola"}`),
		},
		{
			ID:         "S-2",
			Dataset:    "Servicios",
			Evaluation: dataset.StructuredEvaluation(map[string]any{"precision_llamada": 75.0}),
		},
		{
			ID:         "S-3",
			Dataset:    "Servicios",
			Evaluation: dataset.TextEvaluation("texto libre"),
		},
	}
}

func TestRowsFromRecords(t *testing.T) {
	rows := RowsFromRecords(sampleRecords())

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.PrecisionLlamada == nil || *first.PrecisionLlamada != 90 {
		t.Errorf("unexpected precision %v", first.PrecisionLlamada)
	}
	if first.ErrorCriticoCliente == nil || !*first.ErrorCriticoCliente {
		t.Error("expected cliente flag true")
	}
	if first.ErrorNoCritico == nil || *first.ErrorNoCritico {
		t.Error("expected no-critico flag false")
	}
	if !first.HasTranscript {
		t.Error("expected transcript")
	}
	if rows[2].PrecisionLlamada != nil || rows[2].HasTranscript {
		t.Errorf("expected empty metrics for free text, got %+v", rows[2])
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(RowsFromRecords(sampleRecords()))

	if s.Calls != 3 || s.WithPrecision != 2 || s.WithTranscript != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.AvgPrecision == nil || *s.AvgPrecision != 82.5 {
		t.Errorf("expected average 82.5, got %v", s.AvgPrecision)
	}
	if s.ErrorsCliente != 1 || s.ErrorsNoCritico != 0 {
		t.Errorf("unexpected finding counts %+v", s)
	}

	if empty := Summarize(nil); empty.AvgPrecision != nil || empty.Calls != 0 {
		t.Errorf("expected empty summary, got %+v", empty)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out/calls.xlsx", FormatXLSX, false},
		{"calls.JSON", FormatJSON, false},
		{"informe.md", FormatMarkdown, false},
		{"calls.csv", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExportRows_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportRows(RowsFromRecords(sampleRecords()), FormatJSON, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded) != 3 || decoded[0]["id_llamada_procesada"] != "S-1" {
		t.Errorf("unexpected export %v", decoded)
	}
	if decoded[2]["precision_llamada"] != nil {
		t.Errorf("expected null precision, got %v", decoded[2]["precision_llamada"])
	}
}

func TestExportRows_XLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportRows(RowsFromRecords(sampleRecords()), FormatXLSX, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(callsSheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID Llamada" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "S-1" || rows[1][4] != "90" || rows[1][5] != "Sí" || rows[1][8] != "No" || rows[1][9] != "Sí" {
		t.Errorf("unexpected first row %v", rows[1])
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("failed to read summary: %v", err)
	}
	if summary[1][0] != "Total llamadas" || summary[1][1] != "3" {
		t.Errorf("unexpected summary row %v", summary[1])
	}
}

func TestExportRows_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportRows(nil, FormatMarkdown, &buf); err == nil {
		t.Error("expected error for markdown rows")
	}
}

func TestExportReport(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	if err := ExportReport("Bloqueos", "\n**Resumen Ejecutivo**\n...\n", at, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, "# Informe de Análisis Estratégico: Bloqueos\n\n_Generado: 2025-06-01 08:30:00_\n\n**Resumen Ejecutivo**") {
		t.Errorf("unexpected report document:\n%s", got)
	}
}
