// Package httpapi wires all public endpoints onto one chi router.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contacthandler "contactlink/internal/contact/handler"
	"contactlink/internal/platform/metrics"
	"contactlink/internal/platform/middleware"
)

// HealthCheck reports store reachability; nil means always healthy (dev mode
// with the in-memory store).
type HealthCheck func(ctx context.Context) error

// NewRouter builds the full middleware chain and mounts every route.
func NewRouter(
	contacts *contacthandler.Handler,
	logger *slog.Logger,
	m *metrics.Metrics,
	requestTimeout time.Duration,
	health HealthCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				http.Error(w, "store unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		contacts.Register(api)
	})

	return r
}
