package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	callsSheet   = "Llamadas"
	summarySheet = "Resumen"
)

var rowHeader = []interface{}{
	"ID Llamada", "Dataset", "Fecha", "Celular", "Precisión Llamada",
	"Error Crítico Cliente", "Error Crítico Negocio", "Error Crítico Cumplimiento",
	"Error No Crítico", "Transcripción",
}

func exportXLSX(rows []Row, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", callsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(callsSheet, "A1", &rowHeader); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(rowHeader), 1)
	if err := f.SetCellStyle(callsSheet, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(callsSheet, "A", "A", 24); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.ID, r.Dataset, r.CallDate, r.Phone, floatCell(r.PrecisionLlamada),
			boolCell(r.ErrorCriticoCliente), boolCell(r.ErrorCriticoNegocio),
			boolCell(r.ErrorCriticoCumplimiento), boolCell(r.ErrorNoCritico),
			boolCell(&r.HasTranscript),
		}
		if err := f.SetSheetRow(callsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := writeSummarySheet(f, Summarize(rows), bold); err != nil {
		return err
	}

	return f.Write(writer)
}

func writeSummarySheet(f *excelize.File, s Summary, bold int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	lines := [][]interface{}{
		{"Métrica", "Valor"},
		{"Total llamadas", s.Calls},
		{"Con precisión", s.WithPrecision},
		{"Precisión promedio", floatCell(s.AvgPrecision)},
		{"Con transcripción", s.WithTranscript},
		{"Errores críticos cliente", s.ErrorsCliente},
		{"Errores críticos negocio", s.ErrorsNegocio},
		{"Errores críticos cumplimiento", s.ErrorsCumplim},
		{"Errores no críticos", s.ErrorsNoCritico},
	}
	for i := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &lines[i]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", bold); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 30)
}

func floatCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func boolCell(v *bool) interface{} {
	switch {
	case v == nil:
		return ""
	case *v:
		return "Sí"
	default:
		return "No"
	}
}
