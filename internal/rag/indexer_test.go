package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/Yates-Labs/auditbot/internal/dataset"
)

func sampleDocs() []Document {
	return []Document{
		{CallID: "S-1", Dataset: "Servicios", Text: "uno"},
		{CallID: "S-2", Dataset: "Servicios", Text: "dos"},
		{CallID: "S-3", Dataset: "Servicios", Text: "tres"},
		{CallID: "B-1", Dataset: "Bloqueos", Text: "cuatro"},
		{CallID: "B-2", Dataset: "Bloqueos", Text: "cinco"},
	}
}

func TestDocumentsFromRecords(t *testing.T) {
	records := []dataset.Record{
		{ID: "A", Dataset: "Servicios", Evaluation: dataset.TextEvaluation("bien")},
		{ID: "B", Dataset: "Servicios"},
		{ID: "C", Dataset: "Bloqueos", Evaluation: dataset.StructuredEvaluation(map[string]any{"k": "v"})},
		{ID: "D", Dataset: "Bloqueos", Evaluation: dataset.TextEvaluation("   ")},
	}

	docs := DocumentsFromRecords(records)

	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].CallID != "A" || docs[0].Text != "bien" {
		t.Errorf("unexpected first document %+v", docs[0])
	}
	if docs[1].CallID != "C" || docs[1].Text != `{"k":"v"}` {
		t.Errorf("unexpected second document %+v", docs[1])
	}
}

func TestIndexEvaluations_Batches(t *testing.T) {
	store := newMockVectorStore()
	embedder := &mockEmbedder{}

	stats, err := IndexEvaluations(context.Background(), sampleDocs(), embedder, store, IndexOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Indexed != 5 || stats.Batches != 3 || stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if embedder.calls != 3 || store.inserts != 3 || store.flushes != 3 {
		t.Errorf("expected 3 embed/insert/flush calls, got %d/%d/%d", embedder.calls, store.inserts, store.flushes)
	}
	rec, ok := store.records[key("Bloqueos", "B-2")]
	if !ok || rec.Text != "cinco" || len(rec.Embedding) != 3 {
		t.Errorf("unexpected stored record %+v", rec)
	}
}

func TestIndexEvaluations_SkipExisting(t *testing.T) {
	store := newMockVectorStore()
	store.records[key("Servicios", "S-1")] = EvaluationRecord{CallID: "S-1", Dataset: "Servicios"}
	// Same id in another dataset must not count as existing.
	store.records[key("Bloqueos", "S-2")] = EvaluationRecord{CallID: "S-2", Dataset: "Bloqueos"}

	stats, err := IndexEvaluations(context.Background(), sampleDocs(), &mockEmbedder{}, store, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 4 || stats.Skipped != 1 {
		t.Errorf("expected 4 indexed and 1 skipped, got %+v", stats)
	}
}

func TestIndexEvaluations_QueryFailureIndexesAll(t *testing.T) {
	store := newMockVectorStore()
	store.queryErr = errors.New("timeout")

	stats, err := IndexEvaluations(context.Background(), sampleDocs(), &mockEmbedder{}, store, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 5 {
		t.Errorf("expected all documents indexed, got %+v", stats)
	}
}

func TestIndexEvaluations_ForceReindex(t *testing.T) {
	store := newMockVectorStore()
	store.records[key("Servicios", "S-1")] = EvaluationRecord{CallID: "S-1", Dataset: "Servicios", Text: "viejo"}

	opts := IndexOptions{BatchSize: 10, ForceReindex: true, SkipExisting: true}
	stats, err := IndexEvaluations(context.Background(), sampleDocs(), &mockEmbedder{}, store, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 5 || stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if len(store.deleted) != 5 {
		t.Errorf("expected 5 deletions, got %v", store.deleted)
	}
	if store.records[key("Servicios", "S-1")].Text != "uno" {
		t.Error("expected S-1 to be replaced")
	}
}

func TestIndexEvaluations_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name     string
		embedder Embedder
		store    VectorStore
		wantErr  error
	}{
		{"nil embedder", nil, newMockVectorStore(), nil},
		{"nil store", &mockEmbedder{}, nil, nil},
		{
			"embedding failure",
			&mockEmbedder{embedFunc: func(context.Context, []string) ([]EvaluationVector, error) { return nil, boom }},
			newMockVectorStore(),
			boom,
		},
		{
			"short embedding response",
			&mockEmbedder{embedFunc: func(context.Context, []string) ([]EvaluationVector, error) { return []EvaluationVector{}, nil }},
			newMockVectorStore(),
			ErrEmbeddingFailed,
		},
		{"insert failure", &mockEmbedder{}, &mockVectorStore{records: map[string]EvaluationRecord{}, insertErr: boom}, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IndexEvaluations(ctx, sampleDocs(), tt.embedder, tt.store, DefaultIndexOptions())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if stats, err := IndexEvaluations(ctx, nil, nil, nil, DefaultIndexOptions()); err != nil || stats.Indexed != 0 {
		t.Errorf("expected no-op for empty input, got %+v, %v", stats, err)
	}
}

func TestFilterExpr(t *testing.T) {
	tests := []struct {
		dataset string
		ids     []string
		want    string
	}{
		{"", nil, ""},
		{"Retención", nil, `dataset == "Retención"`},
		{"", []string{"a", "b"}, `call_id in ["a", "b"]`},
		{"Servicios", []string{`x"y`}, `dataset == "Servicios" && call_id in ["x\"y"]`},
	}
	for _, tt := range tests {
		if got := filterExpr(tt.dataset, tt.ids); got != tt.want {
			t.Errorf("filterExpr(%q, %v) = %q, want %q", tt.dataset, tt.ids, got, tt.want)
		}
	}
}
