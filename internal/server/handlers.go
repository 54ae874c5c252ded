package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/export"
	"github.com/Yates-Labs/auditbot/internal/inspect"
	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/Yates-Labs/auditbot/internal/storage"
	"github.com/go-chi/chi/v5"
)

type datasetRequest struct {
	Dataset string `json:"dataset"`
	Limit   int    `json:"limit"`
}

type chatRequest struct {
	datasetRequest
	Question string `json:"question"`
}

type summaryRequest struct {
	datasetRequest
	MaxChars int `json:"max_chars"`
}

type callResponse struct {
	Call     inspect.Detail    `json:"call"`
	Warnings []dataset.Warning `json:"warnings,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"datasets": s.assistant.Datasets()})
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	view := s.assistant.Monitor(pathParam(r, "dataset"), limit)

	format := r.URL.Query().Get("format")
	if format == "" {
		s.respondJSON(w, http.StatusOK, view)
		return
	}

	var buf bytes.Buffer
	switch export.Format(format) {
	case export.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	case export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}
	if err := export.ExportRows(view.Rows, export.Format(format), &buf); err != nil {
		s.log.WithRequest(r).WithError(err).Error("export failed")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "llamadas_"+view.Dataset+"."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	detail, warnings, ok := s.inspect(w, r, s.assistant.Describe)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, callResponse{Call: detail, Warnings: warnings})
}

func (s *Server) handleCallAudio(w http.ResponseWriter, r *http.Request) {
	detail, _, ok := s.inspect(w, r, s.assistant.Inspect)
	if !ok {
		return
	}
	if !detail.HasAudio() {
		s.respondError(w, http.StatusNotFound, detail.AudioNote)
		return
	}
	w.Header().Set("Content-Type", storage.AudioMIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(detail.Audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(detail.Audio)
}

type detailFunc func(ctx context.Context, datasetName, id string) (inspect.Detail, []dataset.Warning, error)

func (s *Server) inspect(w http.ResponseWriter, r *http.Request, assemble detailFunc) (inspect.Detail, []dataset.Warning, bool) {
	detail, warnings, err := assemble(r.Context(), pathParam(r, "dataset"), pathParam(r, "id"))
	if errors.Is(err, orchestrator.ErrCallNotFound) {
		s.respondError(w, http.StatusNotFound, "call not found")
		return inspect.Detail{}, nil, false
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return inspect.Detail{}, nil, false
	}
	return detail, warnings, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	turn, err := s.assistant.Chat(r.Context(), sessionID(r), req.Dataset, req.Limit, req.Question)
	if errors.Is(err, orchestrator.ErrEmptyQuestion) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, turn)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	messages := s.assistant.History(sessionID(r), pathParam(r, "dataset"))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	s.assistant.ResetChat(sessionID(r), pathParam(r, "dataset"))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := decodeOptional(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view := s.assistant.Report(r.Context(), req.Dataset, req.Limit)

	if r.URL.Query().Get("format") != string(export.FormatMarkdown) {
		s.respondJSON(w, http.StatusOK, view)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := export.ExportReport(view.Dataset, view.Report, view.GeneratedAt, w); err != nil {
		s.log.WithRequest(r).WithError(err).Warn("report write failed")
	}
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	view := s.assistant.Transcribe(r.Context(), sessionID(r), header.Filename, data)
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleLastTranscription(w http.ResponseWriter, r *http.Request) {
	last, ok := s.assistant.LastTranscription(sessionID(r))
	if !ok {
		s.respondError(w, http.StatusNotFound, "Aún no has procesado ningún audio en esta sesión.")
		return
	}
	s.respondJSON(w, http.StatusOK, last)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decodeOptional(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondJSON(w, http.StatusOK, s.assistant.Summarize(r.Context(), req.Dataset, req.Limit, req.MaxChars))
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := decodeOptional(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondJSON(w, http.StatusOK, s.assistant.Sentiment(r.Context(), req.Dataset, req.Limit))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.assistant.Sessions().End(sessionID(r))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (s *Server) handleBI(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"url": s.assistant.BIReportURL()})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pathParam returns a URL parameter with percent-escapes decoded so dataset
// names such as Retención match.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func queryInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
