// Package server provides the HTTP server and routing for the tracker.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/neoyipeng2018/central-bank-tracker/internal/config"
	"github.com/neoyipeng2018/central-bank-tracker/internal/di"
	calendarhandlers "github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar/handlers"
	historyhandlers "github.com/neoyipeng2018/central-bank-tracker/internal/modules/history/handlers"
	participantshandlers "github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants/handlers"
	signalhandlers "github.com/neoyipeng2018/central-bank-tracker/internal/modules/signal/handlers"
	snippetshandlers "github.com/neoyipeng2018/central-bank-tracker/internal/modules/snippets/handlers"
	streamhandlers "github.com/neoyipeng2018/central-bank-tracker/internal/modules/stream/handlers"
	trackerhandlers "github.com/neoyipeng2018/central-bank-tracker/internal/modules/tracker/handlers"
)

const defaultRequestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
	Version   string
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	timeout        time.Duration
	devMode        bool
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	version        string
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		version:   cfg.Version,
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.systemHandlers = NewSystemHandlers(cfg.Container, s.version, cfg.Log)

	// A full run must fit inside the request timeout.
	timeout := defaultRequestTimeout
	if rt := cfg.Config.RunTimeout + 5*time.Second; rt > timeout {
		timeout = rt
	}

	s.timeout = timeout
	s.devMode = cfg.Config.DevMode
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware shared by every route. Timeout and
// compression wrap only the request/response routes, see setupRoutes.
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Request metrics, labelled by route pattern
	s.router.Use(s.container.Metrics.Middleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		// Websocket stream, long-lived
		streamhandlers.NewHandler(c.StreamHub, c.SignalService, s.log).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.timeout))
			if !s.devMode {
				r.Use(middleware.Compress(5))
			}

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
				r.Post("/jobs/{name}/run", s.systemHandlers.HandleRunJob)
				r.Get("/backups", s.systemHandlers.HandleListBackups)
				r.Get("/scorers", s.systemHandlers.HandleListScorers)
				r.Post("/scorers/{name}", s.systemHandlers.HandleToggleScorer)
			})

			participantshandlers.NewHandler(c.Roster, c.Scale, c.SnippetRepo, s.log).RegisterRoutes(r)
			calendarhandlers.NewHandler(c.Calendar, c.Clock, s.log).RegisterRoutes(r)
			snippetshandlers.NewHandler(c.SnippetRepo, c.Roster, c.Metrics, s.log).RegisterRoutes(r)
			historyhandlers.NewHandler(c.HistoryRepo, c.Roster, c.Scale, s.log).RegisterRoutes(r)
			signalhandlers.NewHandler(c.SignalService, s.log).RegisterRoutes(r)
			trackerhandlers.NewHandler(c.TrackerService, c.ClassifyLimiter, c.Metrics, s.log).RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"service": "central-bank-tracker",
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		event := s.log.Info()
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			event = s.log.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
