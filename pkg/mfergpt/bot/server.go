package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
)

// webhookEnvelope is the cast.created event shape delivered by the webhook.
type webhookEnvelope struct {
	Type string         `json:"type"`
	Data farcaster.Cast `json:"data"`
}

// Server exposes the webhook endpoint over HTTP.
type Server struct {
	handler *Handler
	server  *http.Server
	logger  *slog.Logger
}

// NewServer creates the HTTP server for the reply pipeline.
func NewServer(address string, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if address == "" {
		address = ":3001"
	}
	s := &Server{
		handler: handler,
		logger:  logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/webhook", s.handleWebhook)

	s.server = &http.Server{
		Addr:              address,
		Handler:           s.recoveryMiddleware(s.loggingMiddleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the server until it fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("webhook server listening", "address", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		s.logger.Warn("unreadable webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if envelope.Type != "" && envelope.Type != "cast.created" {
		s.logger.Debug("ignoring webhook event", "type", envelope.Type)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.handler.HandleCast(r.Context(), envelope.Data); err != nil {
		s.logger.Error("cast handling failed", "hash", envelope.Data.Hash, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Write([]byte("ok"))
}

// loggingMiddleware logs every request under a generated request id.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// recoveryMiddleware converts handler panics into 500 responses so one bad
// payload cannot take the server down.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
