// Package dataset reads call evaluation records from flat JSON files, one
// file per business segment, and memoizes the filtered results.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// EvaluationKind tags the Evaluation union.
type EvaluationKind int

const (
	KindNone EvaluationKind = iota
	KindText
	KindStructured
)

// Evaluation is the quality-assessment payload of a call. It is either raw
// text (usually JSON that has not been parsed yet) or an already structured
// value: a JSON object or array decoded with json.Number literals.
type Evaluation struct {
	kind  EvaluationKind
	text  string
	value any
}

// TextEvaluation wraps a textual payload.
func TextEvaluation(text string) Evaluation {
	return Evaluation{kind: KindText, text: text}
}

// StructuredEvaluation wraps a decoded JSON object or array.
func StructuredEvaluation(value any) Evaluation {
	return Evaluation{kind: KindStructured, value: value}
}

// Kind reports which variant is set.
func (e Evaluation) Kind() EvaluationKind {
	return e.kind
}

// RawText returns the textual payload, if any.
func (e Evaluation) RawText() (string, bool) {
	return e.text, e.kind == KindText
}

// Value returns the structured payload, if any.
func (e Evaluation) Value() (any, bool) {
	return e.value, e.kind == KindStructured
}

// Mapping returns the structured payload when it is a JSON object.
func (e Evaluation) Mapping() (map[string]any, bool) {
	m, ok := e.value.(map[string]any)
	return m, ok && e.kind == KindStructured
}

// IsEmpty reports whether the payload carries nothing usable.
func (e Evaluation) IsEmpty() bool {
	switch e.kind {
	case KindText:
		return e.text == ""
	case KindStructured:
		switch v := e.value.(type) {
		case map[string]any:
			return len(v) == 0
		case []any:
			return len(v) == 0
		default:
			return v == nil
		}
	default:
		return true
	}
}

// AsText renders the payload for a prompt: text passes through unchanged,
// structured values become compact JSON with non-ASCII characters kept.
func (e Evaluation) AsText() string {
	switch e.kind {
	case KindText:
		return e.text
	case KindStructured:
		s, err := compactJSON(e.value)
		if err != nil {
			return fmt.Sprint(e.value)
		}
		return s
	default:
		return ""
	}
}

// MarshalJSON emits the payload in its original shape.
func (e Evaluation) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case KindText:
		return json.Marshal(e.text)
	case KindStructured:
		s, err := compactJSON(e.value)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON resolves the union from a raw JSON value.
func (e *Evaluation) UnmarshalJSON(data []byte) error {
	ev, err := parseEvaluation(data)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// Record is one processed call.
type Record struct {
	ID         string     `json:"id_llamada_procesada"`
	Dataset    string     `json:"dataset"`
	Evaluation Evaluation `json:"evaluacion_llamada"`
	AudioRef   string     `json:"id_original_path,omitempty"`
	CallDate   string     `json:"fecha_llamada,omitempty"`
	Phone      string     `json:"celular,omitempty"`
}

// Eligible reports whether the record may feed chat and report context.
func (r Record) Eligible() bool {
	return !r.Evaluation.IsEmpty()
}

// rawRecord mirrors one object of a dataset file. Scalar fields are kept raw
// because exports are not consistent about strings versus numbers.
type rawRecord struct {
	ID            json.RawMessage `json:"id_llamada_procesada"`
	EvaluationRaw json.RawMessage `json:"evaluacion_llamada_raw"`
	Evaluation    json.RawMessage `json:"evaluacion_llamada"`
	AudioRef      json.RawMessage `json:"id_original_path"`
	CallDate      json.RawMessage `json:"fecha_llamada"`
	Date          json.RawMessage `json:"fecha"`
	Phone         json.RawMessage `json:"celular"`
}

func (r rawRecord) toRecord(dataset string) (Record, error) {
	ev, err := parseEvaluation(r.EvaluationRaw)
	if err != nil {
		return Record{}, err
	}
	if ev.IsEmpty() {
		if ev, err = parseEvaluation(r.Evaluation); err != nil {
			return Record{}, err
		}
	}

	date := scalarString(r.CallDate)
	if date == "" {
		date = scalarString(r.Date)
	}

	return Record{
		ID:         scalarString(r.ID),
		Dataset:    dataset,
		Evaluation: ev,
		AudioRef:   scalarString(r.AudioRef),
		CallDate:   date,
		Phone:      scalarString(r.Phone),
	}, nil
}

// parseEvaluation maps a raw JSON value onto the union. Falsy values count
// as absent: null, false, any number equal to zero, and empty strings,
// objects or arrays (the last three through IsEmpty).
func parseEvaluation(data []byte) (Evaluation, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return Evaluation{}, nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Evaluation{}, err
		}
		return TextEvaluation(s), nil
	case '{', '[':
		v, err := decodeJSON(data)
		if err != nil {
			return Evaluation{}, err
		}
		return StructuredEvaluation(v), nil
	default:
		literal := string(data)
		if literal == "false" || isZeroNumber(literal) {
			return Evaluation{}, nil
		}
		return TextEvaluation(literal), nil
	}
}

func isZeroNumber(literal string) bool {
	f, err := json.Number(literal).Float64()
	return err == nil && f == 0
}

func scalarString(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return ""
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	}
	return string(data)
}

// decodeJSON decodes preserving number literals so re-encoding is lossless.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// ParsePayload decodes a JSON object from text.
func ParsePayload(text string) (map[string]any, error) {
	v, err := decodeJSON([]byte(text))
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("evaluation is %T, not an object", v)
	}
	return m, nil
}

func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
