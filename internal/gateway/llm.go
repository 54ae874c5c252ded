// Package gateway sends prompts to hosted generative models. It defines a
// provider-agnostic Model interface with Gemini, OpenAI and deterministic mock
// implementations, and a Gateway that converts every remote failure into a
// renderable Result instead of an error.
package gateway

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrLLMFailed             = errors.New("LLM request failed")
	ErrInvalidConfig         = errors.New("invalid LLM configuration")
	ErrEmptyPrompt           = errors.New("prompt cannot be empty")
	ErrEmptyResponse         = errors.New("model returned an empty response")
	ErrAttachmentUnsupported = errors.New("provider does not support file attachments")
)

// AudioMIMEType is the content type used for call recordings.
const AudioMIMEType = "audio/mpeg"

// Model is implemented by every generation backend.
// Implementations must be stateless and safe for concurrent use.
type Model interface {
	// Generate runs a single request. No retries are attempted.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Provider names the backend ("gemini", "openai", "mock").
	Provider() string
}

// Part is one ordered piece of request content: text, or a reference to a
// file already uploaded to object storage.
type Part struct {
	Text     string
	FileURI  string
	MIMEType string
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// FilePart builds a file reference part.
func FilePart(uri, mimeType string) Part {
	return Part{FileURI: uri, MIMEType: mimeType}
}

// IsFile reports whether the part references a stored file.
func (p Part) IsFile() bool {
	return p.FileURI != ""
}

// Request is what a Model receives.
type Request struct {
	Model   string
	Parts   []Part
	Options Options
}

// Prompt returns the concatenated text parts.
func (r Request) Prompt() string {
	texts := make([]string, 0, len(r.Parts))
	for _, p := range r.Parts {
		if !p.IsFile() {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

// Response is the raw generated text plus provenance.
type Response struct {
	Text     string
	Metadata Metadata
}

// Metadata captures model configuration and token usage for a generation.
type Metadata struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	ResponseID   string `json:"response_id,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	TotalTokens  int    `json:"total_tokens,omitempty"`
	LatencyMS    int64  `json:"latency_ms,omitempty"`
}

// Options are the generation knobs shared by all providers. Providers ignore
// the options they cannot express.
type Options struct {
	Temperature     *float32 `yaml:"temperature,omitempty"`
	TopP            *float32 `yaml:"top_p,omitempty"`
	TopK            *float32 `yaml:"top_k,omitempty"`
	CandidateCount  int32    `yaml:"candidate_count,omitempty"`
	MaxOutputTokens int32    `yaml:"max_output_tokens,omitempty"`
	StopSequences   []string `yaml:"stop_sequences,omitempty"`
	Seed            *int32   `yaml:"seed,omitempty"`

	// AudioTimestamp asks the model to understand timestamps in audio parts.
	AudioTimestamp bool `yaml:"audio_timestamp,omitempty"`

	// ThinkingBudget of -1 lets the model decide.
	ThinkingBudget *int32 `yaml:"thinking_budget,omitempty"`

	// JSONResponse requests application/json output.
	JSONResponse bool `yaml:"json_response,omitempty"`
}

// Profile binds a model name to its options for one purpose.
type Profile struct {
	Model   string  `yaml:"model"`
	Options Options `yaml:",inline"`
}

// Purpose selects a profile and the failure template.
type Purpose string

const (
	PurposeChat          Purpose = "chat"
	PurposeReport        Purpose = "report"
	PurposeTranscription Purpose = "transcription"
	PurposeSummary       Purpose = "summary"
	PurposeSentiment     Purpose = "sentiment"
)

// Profiles holds one profile per purpose.
type Profiles struct {
	Chat          Profile `yaml:"chat"`
	Report        Profile `yaml:"report"`
	Transcription Profile `yaml:"transcription"`
	Summary       Profile `yaml:"summary"`
	Sentiment     Profile `yaml:"sentiment"`
}

// For returns the profile configured for purpose. Unknown purposes use Chat.
func (p Profiles) For(purpose Purpose) Profile {
	switch purpose {
	case PurposeReport:
		return p.Report
	case PurposeTranscription:
		return p.Transcription
	case PurposeSummary:
		return p.Summary
	case PurposeSentiment:
		return p.Sentiment
	default:
		return p.Chat
	}
}

// DefaultProfiles mirrors the settings the dashboard has always used.
func DefaultProfiles() Profiles {
	return Profiles{
		Chat: Profile{
			Model: "gemini-2.5-flash",
			Options: Options{
				Temperature:    ptr[float32](0.6),
				TopP:           ptr[float32](0.95),
				ThinkingBudget: ptr[int32](-1),
			},
		},
		Report: Profile{
			Model: "gemini-2.5-pro",
			Options: Options{
				Temperature:     ptr[float32](0.7),
				TopP:            ptr[float32](0.8),
				TopK:            ptr[float32](40),
				CandidateCount:  1,
				Seed:            ptr[int32](12345),
				MaxOutputTokens: 8192,
				StopSequences:   []string{"STOP"},
			},
		},
		Transcription: Profile{
			Model: "gemini-2.5-pro",
			Options: Options{
				Temperature:    ptr[float32](0.7),
				TopP:           ptr[float32](1),
				AudioTimestamp: true,
				ThinkingBudget: ptr[int32](-1),
			},
		},
		Summary: Profile{
			Model:   "gemini-2.5-flash",
			Options: Options{Temperature: ptr[float32](0.2)},
		},
		Sentiment: Profile{
			Model: "gemini-2.5-flash",
			Options: Options{
				Temperature:  ptr[float32](0.2),
				JSONResponse: true,
			},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
