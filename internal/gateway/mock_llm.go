package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a deterministic Model for tests and offline runs.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, a default response is derived from the prompt.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	mu          sync.Mutex
	lastRequest Request
	calls       int
}

// NewMockLLM creates a mock with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock that always fails.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Provider implements Model.
func (m *MockLLM) Provider() string {
	return "mock"
}

// Generate records the request and returns the configured outcome.
func (m *MockLLM) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.lastRequest = req
	m.calls++
	m.mu.Unlock()

	if m.Error != nil {
		return nil, m.Error
	}

	text := m.Response
	if text == "" {
		text = generateMockResponse(req)
	}
	return &Response{
		Text:     text,
		Metadata: Metadata{Provider: m.Provider(), Model: req.Model},
	}, nil
}

// LastRequest returns the most recent request passed to Generate.
func (m *MockLLM) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// LastPrompt returns the text of the most recent request.
func (m *MockLLM) LastPrompt() string {
	return m.LastRequest().Prompt()
}

// Calls returns how many times Generate ran.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// generateMockResponse summarizes what the prompt carried so offline runs
// still show something tied to the input.
func generateMockResponse(req Request) string {
	prompt := req.Prompt()
	records := strings.Count(prompt, "\nID: ")
	if strings.HasPrefix(prompt, "ID: ") {
		records++
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Respuesta simulada del modelo %s. ", req.Model))
	b.WriteString(fmt.Sprintf("Se recibieron %d evaluaciones en el contexto", records))
	for _, p := range req.Parts {
		if p.IsFile() {
			b.WriteString(fmt.Sprintf(" y el archivo %s", p.FileURI))
		}
	}
	b.WriteString(".")
	return b.String()
}
