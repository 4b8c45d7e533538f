package diagnostics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tdeslauriers/tandem/internal/util"
	"github.com/tdeslauriers/tandem/pkg/connect"
)

const (
	StatusOk       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not ready"
)

// HealthCheck is the body of /healthz and /readyz.
type HealthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthCheckHandler is pure liveness: it never calls a dependency.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	connect.WriteJson(w, http.StatusOK, HealthCheck{Status: StatusOk})
}

// Probe checks one live dependency; a nil return means ready.
type Probe func(ctx context.Context) error

// ReadinessHandler runs probe once per request, bounded by timeout.
// Any probe error is reported as 503 with the error's message.
func ReadinessHandler(probe Probe, timeout time.Duration) http.HandlerFunc {

	logger := slog.Default().
		With(slog.String(util.PackageKey, util.PackageDiagnostics)).
		With(slog.String(util.ComponentKey, util.ComponentReadiness))

	return func(w http.ResponseWriter, r *http.Request) {

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := probe(ctx); err != nil {
			msg := err.Error()
			if msg == "" {
				msg = "readiness probe failed"
			}

			log := logger
			if telemetry, ok := connect.GetTelemetryFromContext(r.Context()); ok {
				log = log.With(telemetry.TelemetryFields()...)
			}
			log.Warn("readiness probe failed", slog.String("err", msg))

			connect.WriteJson(w, http.StatusServiceUnavailable, HealthCheck{
				Status: StatusNotReady,
				Error:  msg,
			})
			return
		}

		connect.WriteJson(w, http.StatusOK, HealthCheck{Status: StatusReady})
	}
}
