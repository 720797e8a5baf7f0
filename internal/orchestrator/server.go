// internal/orchestrator/server.go
package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"intake-orchestrator/internal/common/config"
	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the turn protocol over HTTP for the dialogue platform.
type Server struct {
	orchestrator *Orchestrator
	httpServer   *http.Server
	logger       logger.Logger
}

func NewServer(orch *Orchestrator, cfg config.ServerConfig, log logger.Logger) *Server {
	s := &Server{
		orchestrator: orch,
		logger:       log.WithFields(map[string]interface{}{"component": "server"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/turns", s.handleTurn)
	mux.HandleFunc("/v1/sessions/", s.handleSession)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

// Handler returns the server's routing handler so tests can mount it on an
// in-process listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{
		"address": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		s.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	resp, err := s.orchestrator.ProcessTurn(r.Context(), &req)
	if err != nil {
		s.writeTurnError(w, req.SessionID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		s.writeError(w, http.StatusBadRequest, "session id missing")
		return
	}

	sess, err := s.orchestrator.Session(r.Context(), sessionID)
	if err != nil {
		if stderrors.HasCode(err, stderrors.ErrCodeSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("session read failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "session read failed")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) writeTurnError(w http.ResponseWriter, sessionID string, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.HasCode(err, stderrors.ErrCodeSessionClosed):
		status = http.StatusConflict
	case stderrors.HasCode(err, stderrors.ErrCodeSessionNotFound):
		status = http.StatusNotFound
	case stderrors.HasCode(err, stderrors.ErrCodeSessionStoreFailed):
		status = http.StatusServiceUnavailable
	}

	s.logger.Error("turn failed", map[string]interface{}{
		"sessionId": sessionID,
		"error":     err.Error(),
	})

	body := map[string]interface{}{"error": "turn failed"}
	if stdErr, ok := stderrors.AsStandard(err); ok {
		body["code"] = string(stdErr.Code)
		body["relay"] = stderrors.RelayMessage(stdErr.Code)
	}
	s.writeJSON(w, status, body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
