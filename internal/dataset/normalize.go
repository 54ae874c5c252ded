package dataset

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWord      = regexp.MustCompile(`[^a-z0-9]+`)
	nonNumeric   = regexp.MustCompile(`[^0-9.,-]`)
	trueAliases  = map[string]bool{"si": true, "true": true, "1": true, "x": true, "ok": true, "cumple": true}
	falseAliases = map[string]bool{"no": true, "false": true, "0": true, "": true, "na": true, "n/a": true, "null": true}
)

// categoryAliases maps a normalized finding category to the sanitized keys it
// may appear under, in priority order.
var categoryAliases = []struct {
	key     string
	aliases []string
}{
	{"error_no_critico", []string{"error_no_critico"}},
	{"error_critico_cliente", []string{"error_critico_de_usuario_final", "error_critico_usuario_final", "error_critico_de_cliente"}},
	{"error_critico_negocio", []string{"error_critico_de_negocio"}},
	{"error_critico_cumplimiento", []string{"error_critico_de_cumplimiento"}},
}

// Metrics are the precision fields of an evaluation, parsed into typed values.
// Nil means the field was absent or unrecognizable.
type Metrics struct {
	PrecisionLlamada         *float64 `json:"precision_llamada,omitempty"`
	ErrorCriticoCliente      *bool    `json:"precision_error_critico_cliente,omitempty"`
	ErrorCriticoNegocio      *bool    `json:"precision_error_critico_negocio,omitempty"`
	ErrorCriticoCumplimiento *bool    `json:"precision_error_critico_cumplimiento,omitempty"`
	ErrorNoCritico           *bool    `json:"precision_error_no_critico,omitempty"`
}

// Empty reports whether no metric was recognized.
func (m Metrics) Empty() bool {
	return m.PrecisionLlamada == nil && m.ErrorCriticoCliente == nil && m.ErrorCriticoNegocio == nil &&
		m.ErrorCriticoCumplimiento == nil && m.ErrorNoCritico == nil
}

// Normalized is a display-oriented reading of an evaluation payload with
// sanitized keys and typed metrics.
type Normalized struct {
	Transcript  string         `json:"transcripcion,omitempty"`
	Metrics     Metrics        `json:"metricas"`
	OtrosCampos map[string]any `json:"otros_campos,omitempty"`
	Categories  map[string]any `json:"hallazgos,omitempty"`
	Raw         any            `json:"-"`
	HasData     bool           `json:"has_data"`
}

// SanitizeKey strips accents, lowercases and collapses non-alphanumeric runs
// to single underscores.
func SanitizeKey(key string) string {
	s := strings.ToLower(stripAccents(key))
	s = nonWord.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize reads an evaluation without failing: unparseable text is kept as
// raw and reported as data when it is not blank.
func Normalize(e Evaluation) Normalized {
	empty := Normalized{OtrosCampos: map[string]any{}, Categories: map[string]any{}}

	var parsed any
	switch e.Kind() {
	case KindNone:
		return empty
	case KindText:
		text, _ := e.RawText()
		v, err := decodeJSON([]byte(text))
		if err != nil {
			empty.Raw = text
			empty.HasData = strings.TrimSpace(text) != ""
			return empty
		}
		parsed = v
	case KindStructured:
		parsed, _ = e.Value()
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		empty.Raw = parsed
		return empty
	}

	sanitized := make(map[string]any, len(obj))
	for k, v := range obj {
		sanitized[SanitizeKey(k)] = parseJSONValue(v)
	}

	n := Normalized{Raw: parsed}
	n.Metrics.PrecisionLlamada = toNumber(sanitized["precision_llamada"])

	cliente, ok := sanitized["precision_error_critico_cliente"]
	if !ok || cliente == nil {
		cliente = sanitized["precision_error_critico_usuario_final"]
	}
	n.Metrics.ErrorCriticoCliente = toBoolean(cliente)
	n.Metrics.ErrorCriticoNegocio = toBoolean(sanitized["precision_error_critico_negocio"])
	n.Metrics.ErrorCriticoCumplimiento = toBoolean(sanitized["precision_error_critico_cumplimiento"])
	n.Metrics.ErrorNoCritico = toBoolean(sanitized["precision_error_no_critico"])

	transcript, ok := sanitized["transcripcion"]
	if !ok || transcript == nil {
		transcript = sanitized["transcription"]
	}
	if s, ok := transcript.(string); ok {
		n.Transcript = s
	}

	n.OtrosCampos = mergeObjects(sanitized["otros_campos"])

	n.Categories = make(map[string]any)
	for _, c := range categoryAliases {
		for _, alias := range c.aliases {
			if v, ok := sanitized[alias]; ok {
				if v != nil {
					n.Categories[c.key] = v
				}
				break
			}
		}
	}

	n.HasData = !n.Metrics.Empty() || len(n.OtrosCampos) > 0 || len(n.Categories) > 0 ||
		strings.TrimSpace(n.Transcript) != ""
	return n
}

// parseJSONValue decodes strings that hold JSON; anything else is returned as is.
func parseJSONValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	parsed, err := decodeJSON([]byte(s))
	if err != nil {
		return s
	}
	return parsed
}

func toBoolean(v any) *bool {
	yes, no := true, false
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return &t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil
		}
		if f > 0 {
			return &yes
		}
		return &no
	case float64:
		if t > 0 {
			return &yes
		}
		return &no
	case string:
		s := strings.ToLower(stripAccents(strings.TrimSpace(t)))
		if trueAliases[s] {
			return &yes
		}
		if falseAliases[s] {
			return &no
		}
	}
	return nil
}

func toNumber(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = t
	case string:
		cleaned := nonNumeric.ReplaceAllString(t, "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	rounded := math.Round(f*100) / 100
	return &rounded
}

func mergeObjects(v any) map[string]any {
	merged := make(map[string]any)
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				for k, val := range obj {
					merged[k] = val
				}
			}
		}
	case map[string]any:
		for k, val := range t {
			merged[k] = val
		}
	}
	return merged
}
