package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kevinrhaas/glossary/internal/cache"
	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/logging"
	"github.com/kevinrhaas/glossary/internal/providers"
	"github.com/kevinrhaas/glossary/internal/schema"
)

// ServiceName is reported by the informational endpoints.
const ServiceName = "Database Schema Glossary Generator"

// ProviderFactory builds the completer used for one analysis.
type ProviderFactory func(ctx context.Context, s providers.Settings) (providers.Completer, error)

// Server wraps the HTTP server and the resources its handlers share.
type Server struct {
	cfg       config.Config
	logger    *logging.Logger
	manager   *schema.Manager
	cache     *cache.Cache
	providers ProviderFactory
	version   string

	router *gin.Engine
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithProviderFactory replaces providers.New.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Server) { s.providers = f }
}

// WithCache enables the glossary cache for analyses.
func WithCache(c *cache.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// WithVersion sets the version reported by GET /.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates the HTTP server for cfg. The default database connection is
// opened on first use and released by Shutdown.
func New(cfg config.Config, logger *logging.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		manager:   schema.NewManager(cfg.Database.URL, cfg.Database.Schema),
		providers: providers.New,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.newRouter()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server (blocking). It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting glossary API server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the listener and closes the database connection.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	return errors.Join(err, s.manager.Close())
}
