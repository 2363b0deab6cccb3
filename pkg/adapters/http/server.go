// Package http exposes a running session over a local HTTP agent, so other local tools
// can share one login.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Lifecycle is the part of the session controller the agent drives.
type Lifecycle interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.Identity, error)
	RegisterClient(ctx context.Context, req domain.ClientRegistration) (*domain.Identity, error)
	RegisterStaff(ctx context.Context, req domain.StaffRegistration) (*domain.Identity, error)
	Logout(ctx context.Context) error
	Identity(ctx context.Context) (*domain.Identity, error)
}

// StatusSource reports the credential-free session status.
type StatusSource interface {
	Status() domain.Status
	Watch(ctx context.Context) <-chan domain.Status
}

// Server serves the agent routes.
type Server struct {
	lifecycle     Lifecycle
	status        StatusSource
	metrics       http.Handler
	allowedOrigin string
	logger        *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAllowedOrigin enables CORS for a single browser origin.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.allowedOrigin = origin
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the agent handler.
func NewHandler(lifecycle Lifecycle, status StatusSource, opts ...Option) http.Handler {
	s := &Server{
		lifecycle: lifecycle,
		status:    status,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.allowedOrigin != "" {
		r.Use(s.enableCORS)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/session", s.GetSession)
	r.Get("/session/events", s.SubscribeEvents)
	r.Get("/whoami", s.WhoAmI)
	r.Post("/login", s.Login)
	r.Post("/register/client", s.RegisterClient)
	r.Post("/register/staff", s.RegisterStaff)
	r.Post("/logout", s.Logout)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSession handles the GET /session request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status())
}

// Login handles the POST /login request.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body domain.LoginRequest
	if !s.decode(w, r, &body) {
		return
	}
	id, err := s.lifecycle.Login(r.Context(), body)
	s.respondIdentity(w, r, "Login", id, err)
}

// RegisterClient handles the POST /register/client request.
func (s *Server) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var body domain.ClientRegistration
	if !s.decode(w, r, &body) {
		return
	}
	id, err := s.lifecycle.RegisterClient(r.Context(), body)
	s.respondIdentity(w, r, "RegisterClient", id, err)
}

// RegisterStaff handles the POST /register/staff request.
func (s *Server) RegisterStaff(w http.ResponseWriter, r *http.Request) {
	var body domain.StaffRegistration
	if !s.decode(w, r, &body) {
		return
	}
	id, err := s.lifecycle.RegisterStaff(r.Context(), body)
	s.respondIdentity(w, r, "RegisterStaff", id, err)
}

// Logout handles the POST /logout request.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.lifecycle.Logout(r.Context()); err != nil {
		s.fail(w, r, "Logout", err)
		return
	}
	writeJSON(w, http.StatusOK, s.status.Status())
}

// WhoAmI handles the GET /whoami request.
func (s *Server) WhoAmI(w http.ResponseWriter, r *http.Request) {
	if !s.status.Status().Authenticated {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}
	id, err := s.lifecycle.Identity(r.Context())
	s.respondIdentity(w, r, "WhoAmI", id, err)
}

// SubscribeEvents handles the GET /session/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := s.status.Watch(r.Context())

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(status)
			if err != nil {
				s.logger.Error("SSE status encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) respondIdentity(w http.ResponseWriter, r *http.Request, op string, id *domain.Identity, err error) {
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps a lifecycle error to the agent's HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSagaInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrIdentityLookup),
		errors.Is(err, domain.ErrNetwork),
		errors.Is(err, domain.ErrServer),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
