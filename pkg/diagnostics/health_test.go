package diagnostics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheckHandler(t *testing.T) {

	rec := httptest.NewRecorder()
	HealthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {

	tests := []struct {
		name   string
		probe  Probe
		status int
		body   string
	}{
		{
			name:   "ready",
			probe:  func(ctx context.Context) error { return nil },
			status: http.StatusOK,
			body:   `{"status":"ready"}`,
		},
		{
			name:   "probe error",
			probe:  func(ctx context.Context) error { return errors.New("UnrecognizedClientException: bad token") },
			status: http.StatusServiceUnavailable,
			body:   `{"status":"not ready","error":"UnrecognizedClientException: bad token"}`,
		},
		{
			name:   "empty error message",
			probe:  func(ctx context.Context) error { return errors.New("") },
			status: http.StatusServiceUnavailable,
			body:   `{"status":"not ready","error":"readiness probe failed"}`,
		},
		{
			name: "probe outlives timeout",
			probe: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			status: http.StatusServiceUnavailable,
			body:   `{"status":"not ready","error":"context deadline exceeded"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ReadinessHandler(tc.probe, 20*time.Millisecond).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}
