package facade_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdeslauriers/tandem/pkg/auxiliary"
	"github.com/tdeslauriers/tandem/pkg/connect"
	"github.com/tdeslauriers/tandem/pkg/facade"
	"github.com/tdeslauriers/tandem/pkg/gateway/gatewaytest"
	"github.com/tdeslauriers/tandem/pkg/metrics"
)

// hop records the headers auxiliary received from main.
type hop struct {
	mu          sync.Mutex
	traceparent []string
	requestIds  []string
}

func (h *hop) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.traceparent = append(h.traceparent, r.Header.Get(connect.HeaderTraceparent))
		h.requestIds = append(h.requestIds, r.Header.Get(connect.HeaderRequestId))
		h.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// newPair runs both services: auxiliary over a real listener backed by fake, main in-process.
func newPair(t *testing.T, fake *gatewaytest.Fake) (http.Handler, *hop) {
	t.Helper()

	h := &hop{}
	aux := auxiliary.New("aux-1.2", fake, fake, metrics.New("auxiliary", "aux-1.2"))
	srv := httptest.NewServer(h.wrap(aux.Handler()))
	t.Cleanup(srv.Close)

	m := metrics.New("main", "main-3.4")
	fwd := connect.NewForwarder(srv.URL, "auxiliary", srv.Client(), m)

	return facade.New("main-3.4", fwd, m).Handler(), h
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestEndToEnd(t *testing.T) {

	fake := &gatewaytest.Fake{
		Buckets: []string{"logs", "assets"},
		Names:   []string{"/app/db/password", "/app/api-key"},
		Parameters: map[string]string{
			"db/password": "hunter2",
			"a/b?c=d":     "reserved",
		},
	}
	h, _ := newPair(t, fake)

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{
			name:   "buckets",
			target: "/buckets",
			status: http.StatusOK,
			body:   `{"main_version":"main-3.4","buckets":["logs","assets"],"auxiliary_version":"aux-1.2"}`,
		},
		{
			name:   "parameters",
			target: "/parameters",
			status: http.StatusOK,
			body:   `{"main_version":"main-3.4","parameters":["/app/db/password","/app/api-key"],"auxiliary_version":"aux-1.2"}`,
		},
		{
			name:   "parameter with encoded slash",
			target: "/parameter?name=db%2Fpassword",
			status: http.StatusOK,
			body:   `{"main_version":"main-3.4","name":"db/password","value":"hunter2","auxiliary_version":"aux-1.2"}`,
		},
		{
			name:   "parameter with reserved characters",
			target: "/parameter?name=a%2Fb%3Fc%3Dd",
			status: http.StatusOK,
			body:   `{"main_version":"main-3.4","name":"a/b?c=d","value":"reserved","auxiliary_version":"aux-1.2"}`,
		},
		{
			name:   "parameter not found passes auxiliary error through",
			target: "/parameter?name=nope",
			status: http.StatusOK,
			body:   `{"main_version":"main-3.4","error":"get parameter 'nope': parameter not found"}`,
		},
		{
			name:   "version merged",
			target: "/version",
			status: http.StatusOK,
			body:   `{"main_version":"main-3.4","auxiliary_version":"aux-1.2"}`,
		},
		{
			name:   "readyz",
			target: "/readyz",
			status: http.StatusOK,
			body:   `{"status":"ready"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, tc.target, nil))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}

	assert.Equal(t, []string{"db/password", "a/b?c=d", "nope"}, fake.GotNames, "auxiliary saw each name decoded exactly once")
}

func TestEndToEndIdempotent(t *testing.T) {

	h, _ := newPair(t, &gatewaytest.Fake{Buckets: []string{"logs", "assets"}})

	first := serve(h, httptest.NewRequest(http.MethodGet, "/buckets", nil))
	second := serve(h, httptest.NewRequest(http.MethodGet, "/buckets", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Code, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestEndToEndAuxiliaryNotReady(t *testing.T) {

	fake := &gatewaytest.Fake{DescribeErr: assert.AnError}
	h, _ := newPair(t, fake)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"not ready"`)
	assert.Contains(t, rec.Body.String(), assert.AnError.Error())
}

func TestEndToEndTraceSharedAcrossHops(t *testing.T) {

	h, hops := newPair(t, &gatewaytest.Fake{Buckets: []string{"logs"}})

	const (
		traceId   = "4bf92f3577b34da6a3ce929d0e0e4736"
		requestId = "c0ffee00-0000-4000-8000-000000000001"
	)

	req := httptest.NewRequest(http.MethodGet, "/buckets", nil)
	req.Header.Set(connect.HeaderTraceparent, "00-"+traceId+"-00f067aa0ba902b7-01")
	req.Header.Set(connect.HeaderRequestId, requestId)

	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, requestId, rec.Header().Get(connect.HeaderRequestId))

	require.Len(t, hops.traceparent, 1)
	parts := strings.Split(hops.traceparent[0], "-")
	require.Len(t, parts, 4)
	assert.Equal(t, traceId, parts[1], "auxiliary joins the caller's trace")
	assert.NotEqual(t, "00f067aa0ba902b7", parts[2], "main opens its own span")
	assert.Equal(t, []string{requestId}, hops.requestIds)
}
