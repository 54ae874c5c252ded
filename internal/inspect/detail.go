// Package inspect assembles the single-call detail view: key metrics,
// transcript, audio and the remaining evaluation payload.
package inspect

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/storage"
)

const (
	NotAvailable      = "N/A"
	NoTranscript      = "No disponible."
	NoAudioNote       = "No hay ruta de audio disponible."
	InvalidPayloadMsg = "Texto de evaluación no es JSON válido"
)

// Metric keys in display order.
const (
	MetricPrecision            = "precision_llamada"
	MetricErrorCliente         = "precision_error_critico_cliente"
	MetricErrorNegocio         = "precision_error_critico_negocio"
	MetricErrorCumplimiento    = "precision_error_critico_cumplimiento"
	MetricErrorNoCritico       = "precision_error_no_critico"
	transcriptKey              = "transcripcion"
	audioFetchFailedNoteFormat = "No se pudo descargar el audio: %v"
)

var metricLabels = []struct {
	key   string
	label string
}{
	{MetricPrecision, "Precisión Total"},
	{MetricErrorCliente, "Error Crítico Cliente"},
	{MetricErrorNegocio, "Error Crítico Negocio"},
	{MetricErrorCumplimiento, "Error Crítico Cumplimiento"},
	{MetricErrorNoCritico, "Error No Crítico"},
}

// Fetcher downloads audio by object reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref storage.Ref) ([]byte, error)
}

// Metric is one labelled key figure.
type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Detail is everything shown for one call.
type Detail struct {
	ID         string         `json:"id_llamada_procesada"`
	Dataset    string         `json:"dataset"`
	Phone      string         `json:"celular"`
	CallDate   string         `json:"fecha_llamada"`
	Metrics    []Metric       `json:"metricas"`
	Transcript string         `json:"transcripcion"`
	Payload    map[string]any `json:"evaluacion"`
	AudioRef   string         `json:"audio_ref,omitempty"`
	Audio      []byte         `json:"-"`
	AudioNote  string         `json:"audio_note,omitempty"`
}

// HasAudio reports whether audio bytes were fetched.
func (d Detail) HasAudio() bool {
	return len(d.Audio) > 0
}

// Metric returns the displayed value for key.
func (d Detail) Metric(key string) string {
	for _, m := range d.Metrics {
		if m.Key == key {
			return m.Value
		}
	}
	return NotAvailable
}

// Assemble builds the detail view of rec. A nil fetcher skips audio download.
// Audio failures end up in AudioNote and never abort the view.
func Assemble(ctx context.Context, rec dataset.Record, fetcher Fetcher) Detail {
	payload := payloadOf(rec.Evaluation)

	d := Detail{
		ID:         rec.ID,
		Dataset:    rec.Dataset,
		Phone:      orNA(rec.Phone),
		CallDate:   orNA(rec.CallDate),
		Transcript: NoTranscript,
		AudioRef:   rec.AudioRef,
	}

	if v, ok := payload[transcriptKey]; ok {
		d.Transcript = displayValue(v)
	}

	for _, m := range metricLabels {
		value := NotAvailable
		if v, ok := payload[m.key]; ok && v != nil {
			value = displayValue(v)
			if m.key == MetricPrecision {
				value += "%"
			}
		}
		d.Metrics = append(d.Metrics, Metric{Key: m.key, Label: m.label, Value: value})
	}

	d.Payload = make(map[string]any, len(payload))
	for k, v := range payload {
		d.Payload[k] = v
	}
	for _, m := range metricLabels {
		delete(d.Payload, m.key)
	}

	ref, ok := storage.ParseRef(rec.AudioRef)
	switch {
	case !ok:
		d.AudioNote = NoAudioNote
	case fetcher == nil:
	default:
		audio, err := fetcher.Fetch(ctx, ref)
		if err != nil {
			d.AudioNote = fmt.Sprintf(audioFetchFailedNoteFormat, err)
		} else {
			d.Audio = audio
		}
	}

	return d
}

// payloadOf turns an evaluation into the mapping shown to the reviewer.
func payloadOf(e dataset.Evaluation) map[string]any {
	switch e.Kind() {
	case dataset.KindText:
		text, _ := e.RawText()
		m, err := dataset.ParsePayload(text)
		if err != nil {
			return map[string]any{"error": InvalidPayloadMsg}
		}
		return m
	case dataset.KindStructured:
		if m, ok := e.Mapping(); ok {
			return m
		}
	}
	return map[string]any{}
}

func displayValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return NotAvailable
	case map[string]any, []any:
		return dataset.StructuredEvaluation(t).AsText()
	default:
		return fmt.Sprint(t)
	}
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
