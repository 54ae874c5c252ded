package rag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	ErrNoEvaluations   = errors.New("nothing to embed: evaluation batch is empty")
	ErrMissingAPIKey   = errors.New("evaluation embedder needs OPENAI_API_KEY")
	ErrEmbeddingFailed = errors.New("could not vectorize call evaluations")
)

const (
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultEmbeddingDimension = 1536

	// maxEmbedRunes keeps a single evaluation under the embedding model's
	// input limit.
	maxEmbedRunes = 8000
)

// EvaluationVector is the embedding of one evaluation text. Index is the
// text's position in the batch passed to Embed.
type EvaluationVector struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
	Model     string    `json:"model"`
}

// Embedder turns evaluation texts and chat questions into vectors that the
// evaluation index can compare.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]EvaluationVector, error)
	Model() string
	Dimension() int
}

// OpenAIEmbedder vectorizes evaluations with the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an embedder. An empty apiKey falls back to
// OPENAI_API_KEY.
func NewOpenAIEmbedder(apiKey, model string, dimension int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		dimension: dimension,
	}, nil
}

func (e *OpenAIEmbedder) Model() string  { return e.model }
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed vectorizes a batch of evaluations in one request. Long evaluations
// are cut at maxEmbedRunes; the returned Text is always the untruncated input.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]EvaluationVector, error) {
	if len(texts) == 0 {
		return nil, ErrNoEvaluations
	}

	batch := make([]string, 0, len(texts))
	for _, text := range texts {
		batch = append(batch, truncateRunes(text, maxEmbedRunes))
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          e.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
		Dimensions:     openai.Int(int64(e.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (%d evaluations): %v", ErrEmbeddingFailed, len(texts), err)
	}

	vectors := make([]EvaluationVector, 0, len(resp.Data))
	for _, item := range resp.Data {
		pos := int(item.Index)
		if pos < 0 || pos >= len(texts) {
			return nil, fmt.Errorf("%w: response references evaluation %d of %d", ErrEmbeddingFailed, pos, len(texts))
		}
		vectors = append(vectors, EvaluationVector{
			Text:      texts[pos],
			Embedding: toFloat32(item.Embedding),
			Index:     pos,
			Model:     e.model,
		})
	}
	return vectors, nil
}

// Milvus stores FloatVector columns.
func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
