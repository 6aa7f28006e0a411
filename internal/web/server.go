// Package web provides the HTTP command surface for the workbench: a chi
// router exposing session load, navigation, operators, history and the
// exploratory views as a JSON API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/wrangle/internal/config"
	"github.com/JonMunkholm/wrangle/internal/core"
	"github.com/JonMunkholm/wrangle/internal/warehouse"
	"github.com/JonMunkholm/wrangle/internal/web/middleware"
)

// Server is the HTTP server for the workbench.
type Server struct {
	cfg       *config.Config
	sessions  *core.Manager
	warehouse *warehouse.Exporter

	router      *chi.Mux
	server      *http.Server
	limiter     *middleware.RateLimiter
	loadLimiter *middleware.RateLimiter
}

// NewServer wires routes and middleware. wh may be nil when no database is
// configured.
func NewServer(cfg *config.Config, sessions *core.Manager, wh *warehouse.Exporter) *Server {
	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		warehouse: wh,
		router:    chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute, cfg.Rate.Burst)
		s.loadLimiter = middleware.NewRateLimiter(cfg.Rate.UploadLimit, cfg.Rate.UploadLimit)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(middleware.APIKeyAuth(s.cfg.Security))
		if s.limiter != nil {
			r.Use(s.limiter.Handler)
		}

		r.Get("/steps", s.handleSteps)

		r.Group(func(r chi.Router) {
			if s.loadLimiter != nil {
				r.Use(s.loadLimiter.Handler)
			}
			r.Post("/sheets", s.handleSheets)
			r.Post("/sessions", s.handleLoad)
		})

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.sessionCtx)

			r.Get("/", s.handleState)
			r.Delete("/", s.handleClose)
			r.Post("/step", s.handleNavigate)

			// Committing actions
			r.Post("/apply/{op}", s.handleApply)
			r.Post("/undo", s.handleUndo)
			r.Post("/reset", s.handleReset)
			r.Get("/clean", s.handleCleanStatus)

			// Pivot summary
			r.Get("/pivot", s.handleGetPivot)
			r.Post("/pivot", s.handleGeneratePivot)
			r.Delete("/pivot", s.handleClearPivot)
			r.Get("/pivot/export", s.handleExportPivot)

			// Exploratory views
			r.Post("/filter", s.handleFilter)
			r.Post("/group", s.handleGroup)
			r.Get("/charts", s.handleListCharts)
			r.Post("/charts", s.handleBuildChart)

			// Profile and export
			r.Post("/profile", s.handleProfile)
			r.Get("/profile/report", s.handleProfileReport)
			r.Get("/export", s.handleExport)
			r.Post("/warehouse", s.handleWarehouse)
		})
	})
}

// Start begins listening for HTTP requests. Background sweepers stop when
// ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.Run(ctx)
		go s.loadLimiter.Run(ctx)
	}
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then waits for in-flight loads to
// release their parse slots.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.sessions.Limiter().WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string             `json:"status"`
	Time      time.Time          `json:"time"`
	Sessions  int                `json:"sessions"`
	Loads     core.LimiterStatus `json:"loads"`
	Warehouse bool               `json:"warehouse"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Time:      time.Now().UTC(),
		Sessions:  s.sessions.Len(),
		Loads:     s.sessions.Limiter().Status(),
		Warehouse: s.warehouse.Enabled(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// The profile report inlines its stylesheet.
		h.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src data:")
		next.ServeHTTP(w, r)
	})
}
