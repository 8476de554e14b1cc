// Package web serves the Moodify HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/moodify/internal/mood"
	"github.com/justestif/moodify/internal/playlist"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:8080"

	purgeInterval = 15 * time.Minute
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr     string
	Auth     Authenticator
	Sessions SessionManager // defaults to an in-memory store
	Catalogs CatalogFactory

	Classifier        *mood.Classifier
	Assembler         *playlist.Assembler
	AggregatorOptions []playlist.Option
	Logger            *slog.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router   chi.Router
	server   *http.Server
	sessions SessionManager
	handlers *Handlers
	logger   *slog.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Auth == nil {
		return nil, errors.New("server needs an authenticator")
	}
	if cfg.Catalogs == nil {
		return nil, errors.New("server needs a catalog factory")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewSessionStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	handlers := NewHandlers(cfg.Auth, cfg.Sessions, cfg.Catalogs,
		WithClassifier(cfg.Classifier),
		WithAssembler(cfg.Assembler),
		WithAggregatorOptions(cfg.AggregatorOptions...),
		WithLogger(cfg.Logger),
	)

	s := &Server{
		router:   chi.NewRouter(),
		sessions: cfg.Sessions,
		handlers: handlers,
		logger:   cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generation fans out to the catalog
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the router, e.g. for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Get("/", h.Home)

	// Auth routes
	s.router.Get("/auth/login", h.Login)
	s.router.Get("/callback", h.Callback)
	s.router.Post("/auth/logout", h.Logout)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/spotify/token", h.ExchangeToken)
		r.Get("/moods", h.Moods)
		r.Post("/moods/classify", h.Classify)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Get("/me", h.Me)
			r.Get("/me/top", h.Top)
			r.Get("/preferences", h.GetPreferences)
			r.Put("/preferences", h.PutPreferences)
			r.Post("/playlists/generate", h.Generate)
			r.Post("/playlists", h.SavePlaylist)
			r.Get("/playlists", h.Playlists)
			r.Get("/history", h.History)
			r.Post("/tracks/{id}/like", h.ToggleLike)
			r.Post("/reset", h.Reset)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "url", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is done or an
// interrupt signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go s.purgeLoop(ctx, purgeInterval)

	// Wait for interrupt or error
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// purgeLoop periodically drops expired sessions and their cached catalogs.
func (s *Server) purgeLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purge(ctx)
		}
	}
}

func (s *Server) purge(ctx context.Context) {
	if p, ok := s.sessions.(purger); ok {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			s.logger.Warn("purging expired sessions", "error", err)
		} else if n > 0 {
			s.logger.Info("purged expired sessions", "count", n)
		}
	}
	s.handlers.pruneCatalogs(ctx)
}
