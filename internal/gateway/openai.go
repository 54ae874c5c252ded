package gateway

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIModel implements Model using OpenAI chat completions. It only accepts
// text parts: OpenAI cannot dereference object-store URIs.
type OpenAIModel struct {
	client openai.Client
}

// NewOpenAIModel creates an OpenAI-backed model.
// Returns an error if the API key is missing.
func NewOpenAIModel(apiKey string) (*OpenAIModel, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or provide in config)", ErrInvalidConfig)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIModel{client: client}, nil
}

// Provider implements Model.
func (o *OpenAIModel) Provider() string {
	return "openai"
}

// Generate sends the text parts as one user message.
func (o *OpenAIModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	for _, p := range req.Parts {
		if p.IsFile() {
			return nil, fmt.Errorf("%w: %s", ErrAttachmentUnsupported, o.Provider())
		}
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt()),
		},
	}

	// Set optional parameters if configured
	opts := req.Options
	if opts.Temperature != nil {
		params.Temperature = openai.Float(float64(*opts.Temperature))
	}
	if opts.TopP != nil {
		params.TopP = openai.Float(float64(*opts.TopP))
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxOutputTokens))
	}
	if opts.Seed != nil {
		params.Seed = openai.Int(int64(*opts.Seed))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}

	return &Response{
		Text: completion.Choices[0].Message.Content,
		Metadata: Metadata{
			Provider:     o.Provider(),
			Model:        completion.Model,
			ResponseID:   completion.ID,
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}, nil
}
