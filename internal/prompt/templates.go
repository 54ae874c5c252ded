package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/dataset"
)

// DefaultSummaryChars is the target summary length when none is given.
const DefaultSummaryChars = 4000

var ErrInvalidSentiment = errors.New("sentiment response is not valid JSON")

// ChatPrompt wraps a question with the evaluation context. An empty context
// yields the bare question.
func ChatPrompt(question, context string) string {
	if context == "" {
		return question
	}
	return fmt.Sprintf("Contexto de evaluaciones previas:\n%s\n\nConsulta del usuario:\n%s", context, question)
}

// ReportPrompt asks for an executive report over one dataset answering the
// given questions.
func ReportPrompt(dataset, context string, questions []string) string {
	var b strings.Builder

	b.WriteString("**Rol y Objetivo:**\n")
	b.WriteString("Asume el rol de un **Analista Estratégico Senior de Experiencia del Cliente (CX)**. ")
	b.WriteString("Tu objetivo es generar un informe ejecutivo con insights profundos y accionables para la gerencia del banco. ")
	b.WriteString(fmt.Sprintf("El análisis debe basarse ÚNICA Y EXCLUSIVAMENTE en las evaluaciones de llamadas del dataset de '%s' que se proporcionan a continuación.\n\n", dataset))

	b.WriteString(fmt.Sprintf("**Contexto de Análisis (Evaluaciones de Llamadas de '%s')**\n", dataset))
	b.WriteString("---\n")
	b.WriteString(context + "\n")
	b.WriteString("---\n\n")

	b.WriteString("**Formato de Salida Obligatorio:**\n")
	b.WriteString("1. **Resumen Ejecutivo**\n")
	b.WriteString("   - Párrafo inicial que sintetice los 3-4 hallazgos más críticos y la principal recomendación estratégica.\n")
	b.WriteString("2. **Análisis Detallado por Pregunta**\n")
	b.WriteString("   - Responde cada pregunta listada usando viñetas para los puntos clave.\n")
	b.WriteString("3. **Tabla de Insights y Recomendaciones Estratégicas**\n")
	b.WriteString("   - Tabla en Markdown con columnas: \"Hallazgo Clave\", \"Impacto Potencial (Cliente/Negocio)\", \"Recomendación Estratégica\".\n\n")

	b.WriteString("**Instrucciones de Análisis:**\n")
	b.WriteString("* Cuantifica los hallazgos cuando sea posible.\n")
	b.WriteString("* Sustenta afirmaciones con ejemplos o citas textuales anónimas.\n")
	b.WriteString("* Enfoca las recomendaciones desde una visión estratégica (retención, eficiencia, mejora de producto, etc.).\n")
	b.WriteString("* Usa **negritas** para conceptos clave.\n")
	b.WriteString("* Si la información no es suficiente, indícalo explícitamente sin inventar datos.\n\n")

	b.WriteString("**Preguntas a responder en el análisis detallado:**\n")
	for _, q := range questions {
		b.WriteString("- " + q + "\n")
	}
	b.WriteString("\n")
	b.WriteString("Inicia el informe directamente sin mensajes introductorios adicionales.\n")

	return b.String()
}

// TranscriptionPrompt is the diarization protocol sent along with a call
// recording.
func TranscriptionPrompt() string {
	var b strings.Builder

	b.WriteString("Rol: Eres un sistema de transcripción de alta fidelidad, especializado en entornos de call center complejos. ")
	b.WriteString("Actúas como un \"oído entrenado\", capaz de discernir entre hablantes humanos, sistemas automáticos y ruidos relevantes.\n\n")
	b.WriteString("Tarea: Generar una transcripción y diarización ultra precisa del audio proporcionado, siguiendo estrictamente el protocolo de etiquetado definido, con formato de timecode.\n\n")
	b.WriteString("---\n\n")

	b.WriteString("### Protocolo de Transcripción Detallado ###\n\n")
	b.WriteString("**1. Identificación de Hablantes (Etiquetas obligatorias):**\n")
	b.WriteString("Usa **solo** las siguientes etiquetas al inicio de cada línea:\n\n")
	b.WriteString("- `Agente:` → Empleado del call center.\n")
	b.WriteString("- `Cliente:` → Persona que recibe o realiza la llamada.\n")
	b.WriteString("- `Sistema:` → Mensajes automáticos, música de espera, o voces del sistema telefónico.\n\n")

	b.WriteString("**2. Eventos de Audio y Ruido (Detección selectiva):**\n")
	b.WriteString("Tu foco es capturar únicamente los elementos que sean **relevantes para la interacción principal**.\n\n")
	b.WriteString("**Incluye los siguientes eventos usando corchetes `[]`:**\n\n")
	b.WriteString("- `[silencio prolongado]`:\n")
	b.WriteString("  - **Este marcador solo debe usarse cuando exista un silencio real, continuo y no justificado de al menos 20 segundos.**\n")
	b.WriteString("  - **NO marques pausas normales entre frases, respiraciones, búsquedas breves de información, o espacios de menos de 20 segundos.**\n")
	b.WriteString("  - **Muchos sistemas cometen el error de etiquetar como \"silencio\" espacios naturales del habla: tú NO debes cometer ese error.**\n")
	b.WriteString("  - Si tienes duda sobre si fue un silencio real y prolongado, **no lo marques**.\n\n")
	b.WriteString("- `[suspiro]`, `[sollozo]`, `[risa]`, `[tos]`: Reacciones físicas o emocionales audibles.\n")
	b.WriteString("- `[tecleo de computador]`: Solo si es evidente y relevante.\n")
	b.WriteString("- `[ininteligible]`: Cuando una palabra o frase no es comprensible.\n")
	b.WriteString("- `[conversaciones de fondo]`: Si hay voces audibles que claramente no son parte de la conversación principal.\n")
	b.WriteString("- `[transmite a encuesta]`: Si el agente lo indica explícitamente.\n")
	b.WriteString("- `[superposición de voces]`: Cuando hay cruce simultáneo que impide entender lo dicho.\n\n")

	b.WriteString("**NO INCLUYAS:**\n\n")
	b.WriteString("- Ruidos lejanos o irrelevantes (tráfico, ambiente de oficina).\n")
	b.WriteString("- Conversaciones de fondo **si no son comprensibles** o no interfieren en la conversación.\n")
	b.WriteString("- Música o sonidos ambientales leves.\n\n")
	b.WriteString("---\n\n")

	b.WriteString("### 3. Reglas de Formato de Salida (Obligatorio):\n\n")
	b.WriteString("- Cada línea debe comenzar con el `timecode` entre corchetes `[MM:SS]`, seguido de la etiqueta (`Agente:`, `Cliente:`, `Sistema:`), un espacio y el texto.\n")
	b.WriteString("- La transcripción debe ser literal, palabra por palabra, en español colombiano.\n")
	b.WriteString("- No utilices formato Markdown.\n")
	b.WriteString("- No incluyas resúmenes ni explicaciones.\n")
	b.WriteString("- **NO transcribas contenido de personas de fondo. Si se escucha gente hablando, solo indica `[conversaciones de fondo]` si es claramente audible, sin incluir lo que dicen.**\n")
	b.WriteString("- Si la llamada termina abruptamente sin despedida del agente, **asume que el cliente colgó.**\n\n")
	b.WriteString("---\n\n")

	b.WriteString("### Formato Esperado (Ejemplo literal):\n\n")
	b.WriteString("[00:01] Agente: Buenos días, le saluda Carlos del Banco de Bogotá. ¿Hablo con la señora Ana?\n")
	b.WriteString("[00:04] Cliente: Sí, con ella.\n")
	b.WriteString("[00:07] Agente: Señora Ana, el motivo de mi llamada es sobre su tarjeta de crédito. Permítame un momento mientras valido la información.\n")
	b.WriteString("[00:11] Agente: [tecleo de computador]\n")
	b.WriteString("[00:15] Sistema: Su llamada es importante para nosotros. Gracias por su paciencia. [música de espera suave]\n")
	b.WriteString("[00:20] Cliente: [suspiro] Ok...\n")
	b.WriteString("[00:25] [conversaciones de fondo]\n")
	b.WriteString("[00:28] Agente: Gracias por la espera, señora Ana. Verifico que presenta una mora de...\n")
	b.WriteString("[00:32] [superposición de voces]\n")
	b.WriteString("[00:35] Cliente: Eh... sí, es que he tenido algunos problemas económicos.\n")
	b.WriteString("[00:41] Agente: [transmite a encuesta] La remito a una breve encuesta...\n\n")

	b.WriteString("El audio corresponde a una llamada de cobranzas del Banco de Bogotá. ")
	b.WriteString("Procede ahora con la transcripción del audio adjunto, aplicando **rigurosamente** las reglas anteriores.\n")
	b.WriteString("**Recuerda: marcar incorrectamente un silencio cuando no lo hay es un error crítico. Solo marca silencios prolongados reales de más de 20 segundos.**\n")

	return b.String()
}

// SummarizePrompt asks for a condensed version of a long context. A maxChars
// of zero or less uses DefaultSummaryChars.
func SummarizePrompt(context string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultSummaryChars
	}

	var b strings.Builder
	b.WriteString("Actúa como un analista de datos de calidad de llamadas. Resume el siguiente contexto conservando:\n")
	b.WriteString("- IDs representativos (máx 5 ejemplos)\n")
	b.WriteString("- Métricas numéricas si aparecen (precisión, porcentajes, sentimientos)\n")
	b.WriteString("- Patrones repetidos (citas breves si existen)\n")
	b.WriteString("- Indica si faltan evaluaciones estructuradas.\n")
	b.WriteString(fmt.Sprintf("No inventes información. Longitud objetivo: %d caracteres.\n", maxChars))
	b.WriteString("---\n")
	b.WriteString(context + "\n")
	b.WriteString("---\n")
	b.WriteString("Devuelve solo el resumen.")
	return b.String()
}

// Sentiment is the aggregate sentiment over a set of calls.
type Sentiment struct {
	Positive int    `json:"positiveSentimentCount"`
	Negative int    `json:"negativeSentimentCount"`
	Neutral  int    `json:"neutralSentimentCount"`
	Trend    string `json:"overallSentimentTrend"`
}

// Total is the number of classified calls.
func (s Sentiment) Total() int {
	return s.Positive + s.Negative + s.Neutral
}

// SentimentPrompt asks for a JSON sentiment aggregate over the records.
func SentimentPrompt(records []dataset.Record) string {
	var b strings.Builder

	b.WriteString("Eres un asistente especializado en analizar tendencias de sentimiento de clientes a partir de evaluaciones de llamadas.\n\n")
	b.WriteString("Recibirás una lista de llamadas. Clasifica el sentimiento (positivo, negativo o neutral) de cada una según su campo \"Evaluación\".\n\n")
	b.WriteString("Con base en esa clasificación, cuenta cuántas llamadas tienen sentimiento positivo, negativo y neutral, ")
	b.WriteString("y describe brevemente la tendencia general destacando patrones o hallazgos relevantes.\n\n")
	b.WriteString("Llamadas:\n\n")
	for _, r := range records {
		b.WriteString(fmt.Sprintf("---\nID: %s\nEvaluación: %s\n---\n", r.ID, r.Evaluation.AsText()))
	}
	b.WriteString("\nResponde únicamente con un objeto JSON con esta forma exacta:\n")
	b.WriteString(`{"positiveSentimentCount": 0, "negativeSentimentCount": 0, "neutralSentimentCount": 0, "overallSentimentTrend": ""}`)
	b.WriteString("\n")
	return b.String()
}

// ParseSentiment decodes a model reply, tolerating Markdown code fences
// around the JSON object.
func ParseSentiment(text string) (Sentiment, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}

	var out Sentiment
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return Sentiment{}, fmt.Errorf("%w: %v", ErrInvalidSentiment, err)
	}
	if out.Positive < 0 || out.Negative < 0 || out.Neutral < 0 {
		return Sentiment{}, fmt.Errorf("%w: negative count", ErrInvalidSentiment)
	}
	return out, nil
}
