package gateway

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// GeminiConfig selects the Vertex AI backend when Project is set, otherwise
// the Gemini API with an API key.
type GeminiConfig struct {
	Project    string `yaml:"project"`
	Location   string `yaml:"location"`
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"`
}

// DefaultGeminiConfig reads GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION and GEMINI_API_KEY.
func DefaultGeminiConfig() GeminiConfig {
	location := os.Getenv("GOOGLE_CLOUD_LOCATION")
	if location == "" {
		location = "global"
	}
	return GeminiConfig{
		Project:    os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:   location,
		APIKey:     os.Getenv("GEMINI_API_KEY"),
		APIVersion: "v1",
	}
}

// GeminiModel implements Model with the Google Gen AI SDK. File parts are sent
// as URI references, so gs:// objects never pass through this process.
type GeminiModel struct {
	client *genai.Client
}

// NewGeminiModel creates a Gemini-backed model.
func NewGeminiModel(ctx context.Context, config GeminiConfig) (*GeminiModel, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: config.APIVersion},
	}
	switch {
	case config.Project != "":
		cc.Backend = genai.BackendVertexAI
		cc.Project = config.Project
		cc.Location = config.Location
	case config.APIKey != "":
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = config.APIKey
	default:
		return nil, fmt.Errorf("%w: set GOOGLE_CLOUD_PROJECT for Vertex AI or GEMINI_API_KEY", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &GeminiModel{client: client}, nil
}

// Provider implements Model.
func (g *GeminiModel) Provider() string {
	return "gemini"
}

// Generate implements Model.
func (g *GeminiModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.IsFile() {
			parts = append(parts, genai.NewPartFromURI(p.FileURI, p.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, generateConfig(req.Options))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	out := &Response{
		Text: resp.Text(),
		Metadata: Metadata{
			Provider: g.Provider(),
			Model:    req.Model,
		},
	}
	if u := resp.UsageMetadata; u != nil {
		out.Metadata.InputTokens = int(u.PromptTokenCount)
		out.Metadata.OutputTokens = int(u.CandidatesTokenCount)
		out.Metadata.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

func generateConfig(o Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     o.Temperature,
		TopP:            o.TopP,
		TopK:            o.TopK,
		CandidateCount:  o.CandidateCount,
		MaxOutputTokens: o.MaxOutputTokens,
		StopSequences:   o.StopSequences,
		Seed:            o.Seed,
		AudioTimestamp:  o.AudioTimestamp,
	}
	if o.ThinkingBudget != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: o.ThinkingBudget}
	}
	if o.JSONResponse {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}
