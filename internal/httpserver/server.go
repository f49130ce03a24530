// Package httpserver implements the gateway's single HTTP entry point: a
// chi router carrying the ambient middleware stack (request id, structured
// logging, Prometheus metrics, panic recovery, CORS) plus health, metrics,
// and the one billable `POST /` pipeline endpoint.
package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Server holds the HTTP server dependencies.
type Server struct {
	Router *chi.Mux
	Logger *slog.Logger
	DB     *pgxpool.Pool
	Redis  *redis.Client
}

// Config configures Server-level concerns the gateway itself doesn't own.
type Config struct {
	CORSAllowedOrigins []string
}

// NewServer creates an HTTP server with the ambient middleware stack and
// health/metrics endpoints mounted. The caller must still mount the
// dispatch handler with Mount.
func NewServer(cfg Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) *Server {
	s := &Server{
		Router: chi.NewRouter(),
		Logger: logger,
		DB:     db,
		Redis:  rdb,
	}

	s.Router.Use(RequestID)
	s.Router.Use(Logger(logger))
	s.Router.Use(Metrics)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Get("/readyz", s.handleReadyz)
	s.Router.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	// GET / is the liveness probe of last resort, per spec §6.
	s.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "PONG")
	})

	return s
}

// Mount wires the billable pipeline handler onto POST /. dispatch is
// *app.Gateway's ServeHTTP method; kept as a plain http.HandlerFunc here so
// this package never imports internal/app.
func (s *Server) Mount(dispatch http.HandlerFunc) {
	s.Router.Post("/", dispatch)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.DB.Ping(ctx); err != nil {
		s.Logger.Error("readiness check: database ping failed", "error", err)
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		s.Logger.Error("readiness check: redis ping failed", "error", err)
		http.Error(w, "redis not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ready")
}
