package dataset

import (
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Precisión Llamada", "precision_llamada"},
		{"  Error Crítico de Usuario-Final ", "error_critico_de_usuario_final"},
		{"TRANSCRIPCIÓN", "transcripcion"},
		{"__otros--campos__", "otros_campos"},
		{"Ñandú 2", "nandu_2"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeKey(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func boolValue(b *bool) string {
	if b == nil {
		return "nil"
	}
	if *b {
		return "true"
	}
	return "false"
}

func TestNormalize_Metrics(t *testing.T) {
	ev := TextEvaluation(`{
		"Precisión Llamada": "87,456 %",
		"precision_error_critico_usuario_final": "Sí",
		"precision_error_critico_negocio": "N/A",
		"precision_error_critico_cumplimiento": 0,
		"precision_error_no_critico": "tal vez",
		"Transcripción": "Agente: buenos días"
	}`)

	n := Normalize(ev)

	if n.Metrics.PrecisionLlamada == nil || *n.Metrics.PrecisionLlamada != 87.46 {
		t.Errorf("expected precision 87.46, got %v", n.Metrics.PrecisionLlamada)
	}
	if boolValue(n.Metrics.ErrorCriticoCliente) != "true" {
		t.Errorf("expected cliente alias true, got %s", boolValue(n.Metrics.ErrorCriticoCliente))
	}
	if boolValue(n.Metrics.ErrorCriticoNegocio) != "false" {
		t.Errorf("expected negocio false, got %s", boolValue(n.Metrics.ErrorCriticoNegocio))
	}
	if boolValue(n.Metrics.ErrorCriticoCumplimiento) != "false" {
		t.Errorf("expected cumplimiento false, got %s", boolValue(n.Metrics.ErrorCriticoCumplimiento))
	}
	if n.Metrics.ErrorNoCritico != nil {
		t.Errorf("expected unknown alias to be nil, got %s", boolValue(n.Metrics.ErrorNoCritico))
	}
	if n.Transcript != "Agente: buenos días" {
		t.Errorf("unexpected transcript %q", n.Transcript)
	}
	if !n.HasData {
		t.Error("expected HasData")
	}
}

func TestNormalize_OtrosCamposAndCategories(t *testing.T) {
	ev := StructuredEvaluation(map[string]any{
		"otros_campos":                   `[{"motivo": "bloqueo"}, {"canal": "app"}, "ignorado"]`,
		"Error Crítico de Negocio":       "no ofreció alternativa",
		"error_critico_usuario_final":    nil,
		"error_critico_de_usuario_final": "tono inadecuado",
	})

	n := Normalize(ev)

	if n.OtrosCampos["motivo"] != "bloqueo" || n.OtrosCampos["canal"] != "app" {
		t.Errorf("expected merged otros_campos, got %v", n.OtrosCampos)
	}
	if n.Categories["error_critico_negocio"] != "no ofreció alternativa" {
		t.Errorf("unexpected negocio category: %v", n.Categories)
	}
	if n.Categories["error_critico_cliente"] != "tono inadecuado" {
		t.Errorf("expected first alias to win, got %v", n.Categories["error_critico_cliente"])
	}
	if _, ok := n.Categories["error_no_critico"]; ok {
		t.Error("expected no error_no_critico category")
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	tests := []struct {
		name    string
		ev      Evaluation
		hasData bool
	}{
		{"free text", TextEvaluation("la llamada fue buena"), true},
		{"blank text", TextEvaluation("   "), false},
		{"none", Evaluation{}, false},
		{"array payload", TextEvaluation(`[1,2]`), false},
		{"object without known fields", TextEvaluation(`{"foo": 1}`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.ev)
			if n.HasData != tt.hasData {
				t.Errorf("expected HasData=%v, got %v", tt.hasData, n.HasData)
			}
			if !n.Metrics.Empty() {
				t.Errorf("expected no metrics, got %+v", n.Metrics)
			}
		})
	}
}
