package gateway

import "fmt"

// Failure templates, one per purpose. The single verb receives the error.
const (
	ChatFailureTemplate          = "Lo siento, ocurrió un error al comunicarse con el modelo: %v"
	ReportFailureTemplate        = "Lo siento, ocurrió un error al generar el informe: %v"
	TranscriptionFailureTemplate = "Error al procesar audio con Gemini: %v"
	SummaryFailureTemplate       = "Lo siento, ocurrió un error al resumir el contexto: %v"
	SentimentFailureTemplate     = "Lo siento, ocurrió un error al analizar el sentimiento: %v"
)

// FailureTemplate returns the message template used to render a failed call.
func FailureTemplate(purpose Purpose) string {
	switch purpose {
	case PurposeReport:
		return ReportFailureTemplate
	case PurposeTranscription:
		return TranscriptionFailureTemplate
	case PurposeSummary:
		return SummaryFailureTemplate
	case PurposeSentiment:
		return SentimentFailureTemplate
	default:
		return ChatFailureTemplate
	}
}

// Result is either Ok(text) or Failed(reason). The view layer decides how to
// present a failure; Text gives the standard rendering.
type Result struct {
	text     string
	reason   error
	template string

	Metadata Metadata
}

// Ok wraps generated text.
func Ok(text string, md Metadata) Result {
	return Result{text: text, Metadata: md}
}

// Failed wraps a failure reason with the template used to render it.
func Failed(reason error, template string) Result {
	if template == "" {
		template = ChatFailureTemplate
	}
	return Result{reason: reason, template: template}
}

// OK reports whether the call produced text.
func (r Result) OK() bool {
	return r.reason == nil
}

// Err is the failure reason, nil on success.
func (r Result) Err() error {
	return r.reason
}

// Value is the generated text, empty on failure.
func (r Result) Value() string {
	return r.text
}

// Text renders the result for display: the generated text, or the failure
// template filled with the reason.
func (r Result) Text() string {
	if r.reason != nil {
		return fmt.Sprintf(r.template, r.reason)
	}
	return r.text
}
