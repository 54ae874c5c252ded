package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/rag"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([]rag.EvaluationVector, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]rag.EvaluationVector, len(texts))
	for i, text := range texts {
		out[i] = rag.EvaluationVector{Text: text, Embedding: []float32{1, 0, 0}, Index: i, Model: "stub"}
	}
	return out, nil
}

func (s *stubEmbedder) Model() string  { return "stub" }
func (s *stubEmbedder) Dimension() int { return 3 }

// stubStore returns a fixed ranking and records inserts.
type stubStore struct {
	ranking  []rag.ContextChunk
	stored   map[string]bool
	lastOpts *rag.SearchOptions
	closed   bool
}

func newStubStore(ranking ...string) *stubStore {
	s := &stubStore{stored: make(map[string]bool)}
	for i, id := range ranking {
		s.ranking = append(s.ranking, rag.ContextChunk{CallID: id, Score: 1 - float32(i)/10})
	}
	return s
}

func (s *stubStore) Insert(ctx context.Context, records []rag.EvaluationRecord) error {
	for _, r := range records {
		s.stored[r.Dataset+"/"+r.CallID] = true
	}
	return nil
}

func (s *stubStore) Flush(ctx context.Context) error { return nil }

func (s *stubStore) Search(ctx context.Context, queryVector []float32, topK int, opts *rag.SearchOptions) ([]rag.ContextChunk, error) {
	s.lastOpts = opts
	if len(s.ranking) > topK {
		return s.ranking[:topK], nil
	}
	return s.ranking, nil
}

func (s *stubStore) Query(ctx context.Context, ds string, callIDs []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for _, id := range callIDs {
		if s.stored[ds+"/"+id] {
			found[id] = true
		}
	}
	return found, nil
}

func (s *stubStore) Delete(ctx context.Context, ds string, callIDs []string) error {
	for _, id := range callIDs {
		delete(s.stored, ds+"/"+id)
	}
	return nil
}

func (s *stubStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"row_count": len(s.stored)}, nil
}

func (s *stubStore) Close() error {
	s.closed = true
	return nil
}

func newRetrievalEnv(t *testing.T, embedder rag.Embedder, store *stubStore) *testEnv {
	t.Helper()
	r, err := NewRetrieval(embedder, store, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return newTestEnv(t, gateway.NewMockLLM("ok"), Options{Retrieval: r})
}

func TestNewRetrieval_Validation(t *testing.T) {
	if _, err := NewRetrieval(nil, newStubStore(), 5, nil); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewRetrieval(&stubEmbedder{}, nil, 5, nil); err == nil {
		t.Error("expected error for nil vector store")
	}

	r, err := NewRetrieval(&stubEmbedder{}, newStubStore(), 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.topK != DefaultTopK {
		t.Errorf("expected default topK %d, got %d", DefaultTopK, r.topK)
	}
}

func TestChat_WithRetrieval(t *testing.T) {
	store := newStubStore("S-300", "unknown", "S-100")
	env := newRetrievalEnv(t, &stubEmbedder{}, store)

	turn, err := env.assistant.Chat(context.Background(), "s1", "Servicios", 0, "¿qué pasó?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if turn.Retrieved != 1 {
		t.Errorf("expected 1 retrieved call within topK 2, got %d", turn.Retrieved)
	}
	p := env.model.LastPrompt()
	if !strings.Contains(p, "ID: S-300") || strings.Contains(p, "ID: S-100") {
		t.Errorf("expected context narrowed to S-300:\n%s", p)
	}
	if store.lastOpts == nil || store.lastOpts.Dataset != "Servicios" {
		t.Errorf("expected search filtered by dataset, got %+v", store.lastOpts)
	}
}

func TestChat_RetrievalPinsMentionedIDs(t *testing.T) {
	env := newRetrievalEnv(t, &stubEmbedder{}, newStubStore("S-300"))

	if _, err := env.assistant.Chat(context.Background(), "s1", "Servicios", 0, "explica la llamada S-100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := env.model.LastPrompt()
	first, second := strings.Index(p, "ID: S-100"), strings.Index(p, "ID: S-300")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected S-100 pinned before S-300:\n%s", p)
	}
}

func TestChat_RetrievalFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		embedder *stubEmbedder
		store    *stubStore
	}{
		{"embedding fails", &stubEmbedder{err: errors.New("rate limited")}, newStubStore("S-100")},
		{"no matching ids", &stubEmbedder{}, newStubStore("X-1", "X-2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newRetrievalEnv(t, tt.embedder, tt.store)

			turn, err := env.assistant.Chat(context.Background(), "s1", "Servicios", 0, "hola")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if turn.Retrieved != 0 || !turn.OK {
				t.Errorf("unexpected turn %+v", turn)
			}
			p := env.model.LastPrompt()
			if !strings.Contains(p, "ID: S-100") || !strings.Contains(p, "ID: S-300") {
				t.Errorf("expected full context:\n%s", p)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	store := newStubStore()
	env := newRetrievalEnv(t, &stubEmbedder{}, store)
	ctx := context.Background()

	stats, err := env.assistant.Index(ctx, "Bloqueos", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 2 || !store.stored["Bloqueos/B-100"] {
		t.Errorf("unexpected stats %+v, stored %v", stats, store.stored)
	}

	again, err := env.assistant.Index(ctx, "Bloqueos", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Indexed != 0 || again.Skipped != 2 {
		t.Errorf("expected existing calls skipped, got %+v", again)
	}

	forced, err := env.assistant.Index(ctx, "Bloqueos", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forced.Indexed != 2 {
		t.Errorf("expected forced reindex of 2 calls, got %+v", forced)
	}

	all, err := env.assistant.Index(ctx, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.Indexed != 3 {
		t.Errorf("expected Servicios and Cobranzas indexed, got %+v", all)
	}
}

func TestIndex_Disabled(t *testing.T) {
	env := newTestEnv(t, gateway.NewMockLLM("ok"), Options{})

	if _, err := env.assistant.Index(context.Background(), "", false); !errors.Is(err, ErrRetrievalDisabled) {
		t.Errorf("expected ErrRetrievalDisabled, got %v", err)
	}
}

func TestIndexInfo(t *testing.T) {
	env := newRetrievalEnv(t, &stubEmbedder{}, newStubStore())
	if _, err := env.assistant.Index(context.Background(), "Bloqueos", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := env.assistant.IndexInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info["row_count"] != 2 {
		t.Errorf("expected 2 rows, got %v", info["row_count"])
	}

	disabled := newTestEnv(t, gateway.NewMockLLM("ok"), Options{})
	if _, err := disabled.assistant.IndexInfo(context.Background()); !errors.Is(err, ErrRetrievalDisabled) {
		t.Errorf("expected ErrRetrievalDisabled, got %v", err)
	}
}

func TestAssistantClose(t *testing.T) {
	store := newStubStore()
	env := newRetrievalEnv(t, &stubEmbedder{}, store)
	env.assistant.closers = append(env.assistant.closers, env.assistant.retrieval.Close)

	if err := env.assistant.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.closed {
		t.Error("expected vector store closed")
	}
}

func TestSelectRecords(t *testing.T) {
	records := []dataset.Record{{ID: "a"}, {ID: "b"}, {ID: "a", Dataset: "dup"}, {ID: "c"}}

	got := selectRecords(records, []string{"c", "missing", "a", "c"})

	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" || got[1].Dataset != "" {
		t.Errorf("unexpected selection %+v", got)
	}
}

func TestPinnedIDs(t *testing.T) {
	records := []dataset.Record{{ID: "S-100"}, {ID: "S-2"}, {ID: "B-300"}}

	got := pinnedIDs("compara S-100 con B-300 y S-2", records)

	if strings.Join(got, ",") != "S-100,B-300" {
		t.Errorf("unexpected pinned ids %v", got)
	}
}
