package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/Yates-Labs/auditbot/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// SessionHeader carries the session id in both directions.
const SessionHeader = "X-Session-ID"

type contextKey int

const sessionKey contextKey = iota

// withSession reads the session id, minting one when absent, and echoes it.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			id = session.NewID()
		}
		w.Header().Set(SessionHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey).(string)
	return id
}

// requestLogger logs one line per request with its id, status and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := logger.RequestID(r)
		r.Header.Set(logger.RequestIDHeader, reqID)
		w.Header().Set(logger.RequestIDHeader, reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		entry := s.log.WithRequest(r).WithFields(logrus.Fields{
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if ww.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	})
}
