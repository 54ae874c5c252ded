package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Config selects the provider and carries its credentials and profiles.
type Config struct {
	// Provider is gemini, openai or mock.
	Provider     string       `yaml:"provider"`
	Gemini       GeminiConfig `yaml:",inline"`
	OpenAIAPIKey string       `yaml:"openai_api_key"`
	Profiles     Profiles     `yaml:",inline"`
}

// DefaultConfig returns the Gemini provider with the default profiles.
func DefaultConfig() Config {
	return Config{
		Provider:     "gemini",
		Gemini:       DefaultGeminiConfig(),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		Profiles:     DefaultProfiles(),
	}
}

// NewModel builds the backend named by config.Provider.
func NewModel(ctx context.Context, config Config) (Model, error) {
	switch strings.ToLower(config.Provider) {
	case "", "gemini":
		return NewGeminiModel(ctx, config.Gemini)
	case "openai":
		return NewOpenAIModel(config.OpenAIAPIKey)
	case "mock":
		return NewMockLLM(""), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, config.Provider)
	}
}
