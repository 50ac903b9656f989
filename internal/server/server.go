package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/hermes-be/internal/access"
	"github.com/hongminglow/hermes-be/internal/auth"
	"github.com/hongminglow/hermes-be/internal/auth/provider"
	"github.com/hongminglow/hermes-be/internal/config"
	"github.com/hongminglow/hermes-be/internal/http/handlers"
	"github.com/hongminglow/hermes-be/internal/metrics"
	"github.com/hongminglow/hermes-be/internal/middleware"
	"github.com/hongminglow/hermes-be/internal/storage"
)

// Deps are the collaborators New wires together. Storage is required;
// the rest may be nil.
type Deps struct {
	Storage   storage.UserStore
	Providers *provider.Registry
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) (*Server, error) {
	handler, err := NewHandler(cfg, deps)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// NewHandler builds the full middleware chain and routes.
func NewHandler(cfg config.Config, deps Deps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	providers := deps.Providers
	if providers == nil {
		providers = provider.NewRegistry()
	}

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens, err := auth.NewTokenManager(cfg.AuthSecret, cfg.AuthIssuer, cfg.AuthTTL, deps.Storage)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	authenticator := auth.NewAuthenticator(deps.Storage, hasher)
	cookies := handlers.CookieConfig{Secure: cfg.CookieSecure}

	mux := http.NewServeMux()
	var pinger handlers.Pinger
	if p, ok := deps.Storage.(handlers.Pinger); ok {
		pinger = p
	}
	handlers.NewHealthHandler(time.Now(), pinger).Register(mux)
	handlers.NewAuthHandler(auth.NewRegistrar(deps.Storage, hasher), authenticator, tokens, cookies, logger, deps.Metrics).Register(mux)
	handlers.NewOAuthHandler(providers, authenticator, tokens, cookies, logger, deps.Metrics).Register(mux)
	handlers.NewPagesHandler(tokens, providers, cfg.SignInPath, cfg.UnauthorizedPath, logger).Register(mux)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	gateCfg := access.GateConfig{
		ProtectedPatterns: cfg.ProtectedPatterns,
		SignInPath:        cfg.SignInPath,
	}
	if deps.Metrics != nil {
		gateCfg.OnRedirect = deps.Metrics.ObserveGateRedirect
	}
	gate, err := access.NewGate(tokens, gateCfg)
	if err != nil {
		return nil, fmt.Errorf("access gate: %w", err)
	}

	var observer middleware.DurationObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, observer, gate.Middleware(mux))), nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
