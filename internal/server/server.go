// Package server exposes the dashboard modes over HTTP for a browser
// front-end. State is kept per session, keyed by the X-Session-ID header.
package server

import (
	"context"
	"net/http"

	"github.com/Yates-Labs/auditbot/internal/config"
	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// maxUploadBytes bounds multipart recordings kept in memory.
const maxUploadBytes = 64 << 20

// Server is the HTTP server for the dashboard API.
type Server struct {
	assistant *orchestrator.Assistant
	config    config.ServerConfig
	log       *logger.Logger
	server    *http.Server
}

// NewServer creates a server over assistant.
func NewServer(assistant *orchestrator.Assistant, cfg config.ServerConfig, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		assistant: assistant,
		config:    cfg,
		log:       log,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader, logger.RequestIDHeader},
		ExposedHeaders:   []string{SessionHeader, logger.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/datasets", s.handleDatasets)
		r.Get("/datasets/{dataset}/calls", s.handleCalls)
		r.Get("/datasets/{dataset}/calls/{id}", s.handleCall)
		r.Get("/datasets/{dataset}/calls/{id}/audio", s.handleCallAudio)

		r.Post("/chat", s.handleChat)
		r.Get("/chat/{dataset}", s.handleChatHistory)
		r.Delete("/chat/{dataset}", s.handleChatReset)

		r.Post("/reports", s.handleReport)
		r.Post("/transcriptions", s.handleTranscribe)
		r.Get("/transcriptions/last", s.handleLastTranscription)
		r.Post("/summaries", s.handleSummarize)
		r.Post("/sentiment", s.handleSentiment)

		r.Delete("/session", s.handleEndSession)
		r.Get("/bi", s.handleBI)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.log.WithField("addr", addr).Info("starting dashboard server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
