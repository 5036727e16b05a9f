// ABOUTME: JSON HTTP API server built on chi
// ABOUTME: Wires middleware, identity, admin gating and every /api route
package web

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/relationcraft/postman/config"
	"github.com/relationcraft/postman/viz"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	db        *sql.DB
	cfg       *config.Config
	logger    *slog.Logger
	validator *Validator
	limiter   *KeyedRateLimiter
	graphs    *viz.GraphGenerator
	router    *chi.Mux
	startedAt time.Time
	now       func() time.Time
}

func NewServer(database *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		db:        database,
		cfg:       cfg,
		logger:    logger,
		validator: NewValidator(),
		limiter:   NewKeyedRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		graphs:    viz.NewGraphGenerator(database),
		router:    chi.NewRouter(),
		startedAt: time.Now(),
		now:       time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserIDHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		// Uploaded images are addressed by unguessable ULID names.
		r.Get("/files/{name}", s.handleServeFile)

		r.Group(func(r chi.Router) {
			r.Use(s.identify)

			r.Get("/me", s.handleMe)

			r.Route("/postmen", func(r chi.Router) {
				r.Get("/", s.handleListPostmen)
				r.Post("/", s.handleCreatePostman)
				r.Get("/scores", s.handleScorePostmen)
				r.Get("/export", s.handleExportPostmen)
				r.With(s.rateLimit).Post("/import", s.handleImportPostmen)
				r.Get("/{id}", s.handleGetPostman)
				r.Put("/{id}", s.handleUpdatePostman)
				r.Delete("/{id}", s.handleDeletePostman)
				r.Get("/{id}/score", s.handleGetPostmanScore)
				r.Get("/{id}/graph", s.handlePostmanGraph)
			})

			r.Route("/interactions", func(r chi.Router) {
				r.Get("/", s.handleListInteractions)
				r.Post("/", s.handleCreateInteraction)
				r.Delete("/{id}", s.handleDeleteInteraction)
			})

			r.Route("/daily-logs", func(r chi.Router) {
				r.Get("/", s.handleListDailyLogs)
				r.Put("/", s.handleUpsertDailyLog)
				r.Get("/streak", s.handleStreak)
				r.Get("/{date}", s.handleGetDailyLog)
			})

			r.Route("/weekly-plans", func(r chi.Router) {
				r.Get("/", s.handleListWeeklyPlans)
				r.Put("/", s.handleUpsertWeeklyPlan)
				r.Get("/{date}", s.handleGetWeeklyPlan)
			})

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/calendar", s.handleCalendar)
			r.Get("/graph/pipeline", s.handlePipelineGraph)
			r.Get("/notices", s.handleActiveNotices)
			r.With(s.rateLimit).Post("/uploads", s.handleUpload)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.identify)
			r.Use(s.requireAdmin)

			r.Get("/overview", s.handleAdminOverview)
			r.Get("/analytics", s.handleAdminAnalytics)
			r.Get("/users", s.handleAdminListUsers)
			r.Get("/users/{id}", s.handleAdminGetUser)
			r.Put("/users/{id}", s.handleAdminUpdateUser)
			r.Get("/notices", s.handleAdminListNotices)
			r.Post("/notices", s.handleAdminCreateNotice)
			r.Put("/notices/{id}", s.handleAdminUpdateNotice)
			r.Delete("/notices/{id}", s.handleAdminDeleteNotice)
			r.Get("/system", s.handleAdminSystem)
			r.Post("/system/backup", s.handleAdminBackup)
			r.Get("/logs", s.handleAdminLogs)
		})
	})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	success(w, map[string]string{"status": "healthy"}, s.logger)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  s.cfg.Server.IdleTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting web server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
