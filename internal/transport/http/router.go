// Package httptransport assembles the service's HTTP surface: feature
// handlers, the health endpoint, and the Prometheus scrape endpoint.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fedbridge/internal/transport/http/shared"
)

// Registrar is implemented by feature handlers that mount their own routes
// and middleware chains.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter wires the public endpoints. Feature handlers own their route
// groups; only the operational endpoints live here.
func NewRouter(logger *slog.Logger, checks map[string]HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth(logger, checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

// handleHealth pings every registered dependency with a short deadline. Any
// failing dependency flips the response to 503 with per-check detail.
func handleHealth(logger *slog.Logger, checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		detail := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"check", name,
					"error", err,
				)
				detail[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			detail[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(detail) > 0 {
			body["checks"] = detail
		}
		shared.WriteJSON(w, status, body)
	}
}
