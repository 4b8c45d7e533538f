package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {

	m := New("main", "main-3.4")

	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/parameter", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	for _, target := range []string{"/parameter", "/parameter?name=a", "/parameter?name=b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/parameter", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "404")))
}

func TestObserveUpstream(t *testing.T) {

	m := New("main", "v")
	m.ObserveUpstream("auxiliary", "ok", 10*time.Millisecond)
	m.ObserveUpstream("auxiliary", "ok", 20*time.Millisecond)
	m.ObserveUpstream("auxiliary", "transport", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamTotal.WithLabelValues("auxiliary", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamTotal.WithLabelValues("auxiliary", "transport")))
}

func TestHandlerExposesRegistry(t *testing.T) {

	m := New("auxiliary", "aux-1.2")
	m.ObserveUpstream("ssm", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `upstream_calls_total{outcome="ok",service="auxiliary",target="ssm",version="aux-1.2"} 1`), body)
}
