package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/auth"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/model"
)

// AuthService is the part of auth.Service the handlers depend on.
type AuthService interface {
	Register(ctx context.Context, email, password, username string) (model.User, error)
	Login(ctx context.Context, email, password string) (auth.Token, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type Options struct {
	Logger *slog.Logger
	// Registry receives the HTTP metrics and backs /metrics. Nil creates a
	// private registry.
	Registry *prometheus.Registry
}

type Server struct {
	svc     AuthService
	log     *slog.Logger
	mux     *http.ServeMux
	metrics *metrics
	reg     *prometheus.Registry
}

func NewServer(svc AuthService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		svc:     svc,
		log:     opts.Logger,
		mux:     http.NewServeMux(),
		metrics: newMetrics(opts.Registry),
		reg:     opts.Registry,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.metrics.middleware(h)
	h = loggingMiddleware(s.log, h)
	h = requestIDMiddleware(h)
	h = recoverMiddleware(s.log, h)
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metricsHandler())

	s.mux.HandleFunc("POST /api/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/forgot-password", s.handleForgotPassword)
	s.mux.HandleFunc("POST /api/reset-password", s.handleResetPassword)
	s.mux.Handle("GET /api/verify-token", s.requireAuth(http.HandlerFunc(s.handleVerifyToken)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
