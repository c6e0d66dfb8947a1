// Package ui serves the chartdash dashboard over HTTP.
package ui

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/chartdash/internal/dashboard"
	homeFeature "github.com/leapstack-labs/chartdash/internal/ui/features/home"
	"github.com/leapstack-labs/chartdash/internal/ui/notifier"
	"github.com/leapstack-labs/chartdash/internal/ui/router"
)

// DefaultPlotlySrc is the plotly.js bundle loaded by the page.
const DefaultPlotlySrc = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// Server is the main UI server.
type Server struct {
	registry     *dashboard.Registry
	sessionStore *sessions.CookieStore
	host         string
	port         int
	watch        bool
	dev          bool
	plotlySrc    string
	maxUploadMB  int
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Host          string
	Port          int
	SessionSecret string
	Logger        *slog.Logger

	// SeedPath is uploaded into every new workspace when set.
	SeedPath string
	// Watch reloads SeedPath when it changes.
	Watch bool

	WorkspaceTTL time.Duration
	MaxUploadMB  int
	PlotlySrc    string
	Dev          bool
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PlotlySrc == "" {
		cfg.PlotlySrc = DefaultPlotlySrc
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// Sessions only need to survive this process
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(0) // browser session
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	notify := notifier.New()
	registry, err := dashboard.NewRegistry(dashboard.RegistryConfig{
		Logger:   cfg.Logger,
		Notifier: notify,
		TTL:      cfg.WorkspaceTTL,
		SeedPath: cfg.SeedPath,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		registry:     registry,
		sessionStore: sessionStore,
		host:         cfg.Host,
		port:         cfg.Port,
		watch:        cfg.Watch && cfg.SeedPath != "",
		dev:          cfg.Dev,
		plotlySrc:    cfg.PlotlySrc,
		maxUploadMB:  cfg.MaxUploadMB,
		logger:       cfg.Logger,
		notifier:     notify,
	}, nil
}

// Handler builds the HTTP handler with all middleware and routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, homeFeature.Config{
		Registry:     s.registry,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		Logger:       s.logger,
		IsDev:        s.dev,
		PlotlySrc:    s.plotlySrc,
		MaxUploadMB:  s.maxUploadMB,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, fmt.Sprint(s.port))
}

// URL returns the address a browser should open.
func (s *Server) URL() string {
	host := s.host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(s.port))
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting UI server", "addr", s.URL())

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Reload the seed file on change if enabled
	if s.watch {
		eg.Go(func() error {
			return s.registry.WatchSeed(egctx)
		})
	}

	// Evict idle workspaces
	eg.Go(func() error {
		return s.registry.RunSweeper(egctx, 0)
	})

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev returns true if running in development mode.
func (s *Server) IsDev() bool {
	return s.dev
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Registry returns the server's workspace registry.
func (s *Server) Registry() *dashboard.Registry {
	return s.registry
}
