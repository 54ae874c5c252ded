package rag

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestNewOpenAIEmbedder_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIEmbedder("", DefaultEmbeddingModel, DefaultEmbeddingDimension)
	if err != ErrMissingAPIKey {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewOpenAIEmbedder_Defaults(t *testing.T) {
	embedder, err := NewOpenAIEmbedder("sk-test", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedder.Model() != DefaultEmbeddingModel {
		t.Errorf("expected model %s, got %s", DefaultEmbeddingModel, embedder.Model())
	}
	if embedder.Dimension() != DefaultEmbeddingDimension {
		t.Errorf("expected dimension %d, got %d", DefaultEmbeddingDimension, embedder.Dimension())
	}
}

func TestOpenAIEmbedder_EmptyTexts(t *testing.T) {
	embedder, err := NewOpenAIEmbedder("sk-test", DefaultEmbeddingModel, DefaultEmbeddingDimension)
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	if _, err := embedder.Embed(context.Background(), []string{}); err != ErrNoEvaluations {
		t.Errorf("expected ErrNoEvaluations, got %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("añoño", 3); got != "año" {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
	if got := truncateRunes("corto", 10); got != "corto" {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestToFloat32(t *testing.T) {
	got := toFloat32([]float64{0.5, -1, 0})
	if len(got) != 3 || got[0] != 0.5 || got[1] != -1 || got[2] != 0 {
		t.Errorf("unexpected conversion %v", got)
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	embedder, err := NewOpenAIEmbedder("", DefaultEmbeddingModel, DefaultEmbeddingDimension)
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	texts := []string{"El cliente quedó satisfecho", strings.Repeat("demora ", 2000)}
	records, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(records) != len(texts) {
		t.Fatalf("expected %d records, got %d", len(texts), len(records))
	}
	for i, r := range records {
		if len(r.Embedding) != DefaultEmbeddingDimension {
			t.Errorf("record %d: expected dimension %d, got %d", i, DefaultEmbeddingDimension, len(r.Embedding))
		}
		if r.Text != texts[r.Index] {
			t.Errorf("record %d: text does not match its input", i)
		}
	}
}
