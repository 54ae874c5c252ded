package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yates-Labs/auditbot/internal/config"
	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/Yates-Labs/auditbot/internal/storage"
	"github.com/xuri/excelize/v2"
)

const retencionFixture = `[
  {"id_llamada_procesada": "R-1", "evaluacion_llamada_raw": "{\"precision_llamada\": 88, \"transcripcion\": \"Agente: buenas\"}", "id_original_path": "mem://audios/r1.mp3"},
  {"id_llamada_procesada": "R-2", "evaluacion_llamada_raw": "cliente solicita cancelar"},
  {"id_llamada_procesada": "R-3"}
]`

type testServer struct {
	handler http.Handler
	model   *gateway.MockLLM
	objects *storage.MemoryBackend
}

func newTestServer(t *testing.T, model *gateway.MockLLM) *testServer {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "retencion.json")
	if err := os.WriteFile(path, []byte(retencionFixture), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	reg, err := dataset.NewRegistry([]dataset.Dataset{
		{Name: "Retención", Path: path},
		{Name: "Preferente", Path: filepath.Join(dir, "missing.json")},
	})
	if err != nil {
		t.Fatalf("unexpected registry error: %v", err)
	}

	objects := storage.NewMemoryBackend()
	if err := objects.Put(context.Background(), "audios", "r1.mp3", storage.AudioMIMEType, []byte("ID3-audio")); err != nil {
		t.Fatalf("seed audio: %v", err)
	}
	uploader := storage.NewUploader(objects, storage.Config{Bucket: "audios", Prefix: "subidas"}, nil)

	assistant := orchestrator.New(
		dataset.NewLoader(reg, nil),
		gateway.New(model, gateway.DefaultProfiles(), nil),
		uploader,
		nil,
		orchestrator.Options{BIReportURL: "https://bi.example/report"},
		nil,
	)
	srv := NewServer(assistant, config.ServerConfig{Host: "localhost", Port: 0, AllowedOrigins: []string{"*"}}, nil)
	return &testServer{handler: srv.Handler(), model: model, objects: objects}
}

func (ts *testServer) do(t *testing.T, method, target, sessionID string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	if sessionID != "" {
		r.Header.Set(SessionHeader, sessionID)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
}

func callsPath(ds string) string {
	return "/api/datasets/" + url.PathEscape(ds) + "/calls"
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	w := ts.do(t, http.MethodGet, "/health", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if w.Header().Get(SessionHeader) != "" {
		t.Error("health must not mint sessions")
	}
}

func TestSessionHeader(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	minted := ts.do(t, http.MethodGet, "/api/datasets", "", nil, "")
	if minted.Header().Get(SessionHeader) == "" {
		t.Error("expected a minted session id")
	}
	if minted.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id")
	}

	echoed := ts.do(t, http.MethodGet, "/api/datasets", "abc", nil, "")
	if got := echoed.Header().Get(SessionHeader); got != "abc" {
		t.Errorf("expected echoed session id, got %q", got)
	}

	var out struct {
		Datasets []string `json:"datasets"`
	}
	decode(t, echoed, &out)
	if strings.Join(out.Datasets, ",") != "Retención,Preferente" {
		t.Errorf("unexpected datasets %v", out.Datasets)
	}
}

func TestHandleCalls(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	w := ts.do(t, http.MethodGet, callsPath("Retención")+"?limit=1", "s1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var view orchestrator.MonitorView
	decode(t, w, &view)
	if view.Dataset != "Retención" || len(view.Rows) != 1 || view.Rows[0].ID != "R-1" {
		t.Errorf("unexpected view %+v", view)
	}

	bad := ts.do(t, http.MethodGet, callsPath("Retención")+"?limit=many", "s1", nil, "")
	if bad.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid limit, got %d", bad.Code)
	}
}

func TestHandleCalls_ExportXLSX(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	w := ts.do(t, http.MethodGet, callsPath("Retención")+"?format=xlsx", "s1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Llamadas")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected header + 2 rows, got %d", len(rows))
	}

	unsupported := ts.do(t, http.MethodGet, callsPath("Retención")+"?format=csv", "s1", nil, "")
	if unsupported.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for csv, got %d", unsupported.Code)
	}
}

func TestHandleCall(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"eligible call", "R-1", http.StatusOK},
		{"call without evaluation", "R-3", http.StatusOK},
		{"unknown call", "R-404", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, callsPath("Retención")+"/"+tt.id, "s1", nil, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var out callResponse
			decode(t, w, &out)
			if out.Call.ID != tt.id {
				t.Errorf("unexpected call %+v", out.Call)
			}
			if ts.objects.Gets() != 0 {
				t.Errorf("detail view must not download audio, got %d gets", ts.objects.Gets())
			}
		})
	}
}

func TestHandleCallAudio(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	w := ts.do(t, http.MethodGet, callsPath("Retención")+"/R-1/audio", "s1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %s", ct)
	}
	if w.Body.String() != "ID3-audio" {
		t.Errorf("unexpected body %q", w.Body.String())
	}

	missing := ts.do(t, http.MethodGet, callsPath("Retención")+"/R-2/audio", "s1", nil, "")
	if missing.Code != http.StatusNotFound {
		t.Errorf("expected 404 without audio, got %d", missing.Code)
	}
}

func TestHandleChat(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("Dos clientes quieren cancelar."))

	body := []byte(`{"dataset": "Retención", "question": "¿Quién quiere cancelar?"}`)
	w := ts.do(t, http.MethodPost, "/api/chat", "s1", body, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var turn orchestrator.ChatTurn
	decode(t, w, &turn)
	if !turn.OK || turn.Answer != "Dos clientes quieren cancelar." || turn.SessionID != "s1" {
		t.Errorf("unexpected turn %+v", turn)
	}

	history := ts.do(t, http.MethodGet, "/api/chat/"+url.PathEscape("Retención"), "s1", nil, "")
	var out struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	decode(t, history, &out)
	if len(out.Messages) != 2 || out.Messages[0].Role != "user" {
		t.Errorf("unexpected history %+v", out.Messages)
	}

	reset := ts.do(t, http.MethodDelete, "/api/chat/"+url.PathEscape("Retención"), "s1", nil, "")
	if reset.Code != http.StatusOK {
		t.Fatalf("reset status: got %d", reset.Code)
	}
	after := ts.do(t, http.MethodGet, "/api/chat/"+url.PathEscape("Retención"), "s1", nil, "")
	decode(t, after, &out)
	if len(out.Messages) != 0 {
		t.Errorf("expected empty history after reset, got %+v", out.Messages)
	}
}

func TestHandleChat_BadRequests(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"question":`},
		{"empty question", `{"dataset": "Retención", "question": "  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/chat", "s1", []byte(tt.body), "application/json")
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestHandleChat_DegradesOnGatewayFailure(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLMWithError(errors.New("deadline exceeded")))

	w := ts.do(t, http.MethodPost, "/api/chat", "s1", []byte(`{"dataset": "Retención", "question": "hola"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("gateway failures must render as messages, got status %d", w.Code)
	}
	var turn orchestrator.ChatTurn
	decode(t, w, &turn)
	if turn.OK || !strings.HasPrefix(turn.Answer, "Lo siento, ocurrió un error al comunicarse con el modelo: ") {
		t.Errorf("unexpected turn %+v", turn)
	}
}

func TestHandleReport(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("**Resumen Ejecutivo**\nTodo bien."))

	w := ts.do(t, http.MethodPost, "/api/reports", "s1", []byte(`{"dataset": "Retención"}`), "application/json")
	var view orchestrator.ReportView
	decode(t, w, &view)
	if !view.OK || len(view.Questions) != 8 {
		t.Errorf("unexpected report %+v", view)
	}

	md := ts.do(t, http.MethodPost, "/api/reports?format=md", "s1", []byte(`{"dataset": "Retención"}`), "application/json")
	if !strings.HasPrefix(md.Body.String(), "# Informe de Análisis Estratégico: Retención") {
		t.Errorf("unexpected markdown:\n%s", md.Body.String())
	}

	empty := ts.do(t, http.MethodPost, "/api/reports", "s1", []byte(`{"dataset": "Preferente"}`), "application/json")
	decode(t, empty, &view)
	if view.OK || view.Report != orchestrator.NoReportDataMessage {
		t.Errorf("unexpected empty report %+v", view)
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHandleTranscribe(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("[00:00] Agente: Hola"))

	none := ts.do(t, http.MethodGet, "/api/transcriptions/last", "s1", nil, "")
	if none.Code != http.StatusNotFound {
		t.Errorf("expected 404 before any transcription, got %d", none.Code)
	}

	body, ct := multipartBody(t, "file", "llamada.mp3", []byte("ID3"))
	w := ts.do(t, http.MethodPost, "/api/transcriptions", "s1", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var view orchestrator.TranscriptionView
	decode(t, w, &view)
	if !view.OK || view.Transcription != "[00:00] Agente: Hola" || !strings.HasPrefix(view.URI, "mem://audios/subidas/") {
		t.Errorf("unexpected transcription %+v", view)
	}

	last := ts.do(t, http.MethodGet, "/api/transcriptions/last", "s1", nil, "")
	if last.Code != http.StatusOK {
		t.Fatalf("last status: got %d", last.Code)
	}
	other := ts.do(t, http.MethodGet, "/api/transcriptions/last", "s2", nil, "")
	if other.Code != http.StatusNotFound {
		t.Errorf("sessions must be isolated, got %d", other.Code)
	}

	missing, ct := multipartBody(t, "audio", "llamada.mp3", []byte("ID3"))
	bad := ts.do(t, http.MethodPost, "/api/transcriptions", "s1", missing, ct)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without file field, got %d", bad.Code)
	}
}

func TestHandleSummaryAndSentiment(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM(`{"positiveSentimentCount": 0, "negativeSentimentCount": 2, "neutralSentimentCount": 0, "overallSentimentTrend": "negativa"}`))

	w := ts.do(t, http.MethodPost, "/api/sentiment", "s1", []byte(`{"dataset": "Retención"}`), "application/json")
	var sentiment orchestrator.SentimentView
	decode(t, w, &sentiment)
	if !sentiment.OK || sentiment.Sentiment == nil || sentiment.Sentiment.Negative != 2 {
		t.Errorf("unexpected sentiment %+v", sentiment)
	}

	s := ts.do(t, http.MethodPost, "/api/summaries", "s1", nil, "")
	var summary orchestrator.SummaryView
	decode(t, s, &summary)
	if !summary.OK || summary.Dataset != "Retención" {
		t.Errorf("empty body should summarize the first dataset, got %+v", summary)
	}
}

func TestHandleEndSessionAndBI(t *testing.T) {
	ts := newTestServer(t, gateway.NewMockLLM("ok"))

	ts.do(t, http.MethodPost, "/api/chat", "s1", []byte(`{"question": "hola"}`), "application/json")
	end := ts.do(t, http.MethodDelete, "/api/session", "s1", nil, "")
	if end.Code != http.StatusOK {
		t.Fatalf("status: got %d", end.Code)
	}
	history := ts.do(t, http.MethodGet, "/api/chat/"+url.PathEscape("Retención"), "s1", nil, "")
	var out struct {
		Messages []json.RawMessage `json:"messages"`
	}
	decode(t, history, &out)
	if len(out.Messages) != 0 {
		t.Errorf("expected no history after ending the session, got %d", len(out.Messages))
	}

	bi := ts.do(t, http.MethodGet, "/api/bi", "s1", nil, "")
	var link map[string]string
	decode(t, bi, &link)
	if link["url"] != "https://bi.example/report" {
		t.Errorf("unexpected BI link %v", link)
	}
}
