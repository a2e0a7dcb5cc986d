package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
)

type RouterConfig struct {
	Service *clinic.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector("clinic", prometheus.NewRegistry())
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(MetricsMiddleware(cfg.Metrics))

	// Health endpoints
	var checks []DependencyCheck
	if cfg.PgPool != nil {
		checks = append(checks, DependencyCheck{Name: "postgres", Critical: true, Ping: cfg.PgPool.Ping})
	}
	if cfg.Redis != nil {
		client := cfg.Redis
		checks = append(checks, DependencyCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	health := NewHealthHandler(cfg.Env, cfg.Version, checks...)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	h := &handlers{svc: cfg.Service, log: log, metrics: cfg.Metrics}

	// Registry
	r.Post("/doctors", h.registerDoctor)
	r.Post("/patients", h.registerPatient)

	// Booking
	r.Post("/appointments", h.createAppointment)
	r.Get("/appointments/{id}", h.getAppointment)
	r.Post("/appointments/{id}/book", h.bookAppointment)

	// Reporting
	r.Get("/doctors/{id}/appointments", h.doctorAppointments)
	r.Get("/departments/{id}/appointments/available", h.availableAppointments)
	r.Get("/reports/status-breakdown", h.statusBreakdown)
	r.Get("/reports/patient-count", h.patientCount)

	return r
}
