// Package prompt renders evaluation records and chat history into the text
// blocks sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/dataset"
)

// DefaultHistoryMessages is how many trailing chat turns are replayed.
const DefaultHistoryMessages = 12

const historySeparator = "\n---\n"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// BuildContext renders one delimited segment per record, in input order.
func BuildContext(records []dataset.Record) string {
	if len(records) == 0 {
		return ""
	}

	segments := make([]string, 0, len(records))
	for _, r := range records {
		segments = append(segments, fmt.Sprintf("---\nID: %s\nDataset: %s\nEvaluación: %s\n---",
			r.ID, r.Dataset, r.Evaluation.AsText()))
	}
	return strings.Join(segments, "\n")
}

// HistoryFragment renders the last max messages as labelled lines. A max of
// zero or less uses DefaultHistoryMessages.
func HistoryFragment(messages []Message, max int) string {
	if max <= 0 {
		max = DefaultHistoryMessages
	}
	if len(messages) > max {
		messages = messages[len(messages)-max:]
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		label := "Usuario"
		if m.Role == RoleAssistant {
			label = "Asistente"
		}
		lines = append(lines, label+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// WithHistory prepends a non-empty history fragment to the evaluation context.
func WithHistory(history, context string) string {
	switch {
	case history == "":
		return context
	case context == "":
		return history
	default:
		return history + historySeparator + context
	}
}
