package dataset

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEvaluation_AsText(t *testing.T) {
	structured, err := parseEvaluation([]byte(`{"nota": "atención <ok> & más", "precision_llamada": 87.50, "items": [1, 2]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		ev   Evaluation
		want string
	}{
		{"text passes through", TextEvaluation(`{"a": 1}`), `{"a": 1}`},
		{"structured is compact json", structured, `{"items":[1,2],"nota":"atención <ok> & más","precision_llamada":87.50}`},
		{"empty", Evaluation{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.AsText(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEvaluation_IsEmpty(t *testing.T) {
	tests := []struct {
		raw   string
		empty bool
	}{
		{`null`, true},
		{``, true},
		{`""`, true},
		{`{}`, true},
		{`[]`, true},
		{`false`, true},
		{`0`, true},
		{`0.0`, true},
		{`-0`, true},
		{`0e0`, true},
		{`-0.000`, true},
		{`true`, false},
		{`0.5`, false},
		{`"0"`, false},
		{`"x"`, false},
		{`{"a": null}`, false},
		{`[1]`, false},
		{`42`, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ev, err := parseEvaluation([]byte(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.IsEmpty() != tt.empty {
				t.Errorf("expected empty=%v for %s", tt.empty, tt.raw)
			}
		})
	}
}

func TestEvaluation_MarshalRoundTrip(t *testing.T) {
	var rec Record
	input := `{"id_llamada_procesada":"X","dataset":"Servicios","evaluacion_llamada":{"precision_llamada":100}}`
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != input {
		t.Errorf("expected %s, got %s", input, out)
	}
}

func TestParsePayload(t *testing.T) {
	m, err := ParsePayload(`{"transcripcion": "hola", "score": 3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"transcripcion": "hola", "score": json.Number("3")}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("expected %v, got %v", want, m)
	}

	for _, bad := range []string{"no es json", `["lista"]`, `{"a":1} extra`} {
		if _, err := ParsePayload(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
