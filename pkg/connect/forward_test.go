package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveUpstream(target, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, target+":"+outcome)
}

func newTestForwarder(t *testing.T, handler http.HandlerFunc) (*Forwarder, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	obs := &recordingObserver{}
	return NewForwarder(srv.URL, "auxiliary", srv.Client(), obs), obs
}

func TestGetObject(t *testing.T) {

	tests := []struct {
		name     string
		status   int
		body     string
		want     map[string]any
		wantKind UpstreamErrorKind
		outcome  string
	}{
		{
			name:    "success",
			status:  http.StatusOK,
			body:    `{"buckets":["logs","assets"],"auxiliary_version":"aux-1.2"}`,
			want:    map[string]any{"buckets": []any{"logs", "assets"}, "auxiliary_version": "aux-1.2"},
			outcome: "auxiliary:ok",
		},
		{
			name:    "non-2xx json body passes through",
			status:  http.StatusNotFound,
			body:    `{"error":"parameter not found"}`,
			want:    map[string]any{"error": "parameter not found"},
			outcome: "auxiliary:status",
		},
		{
			name:     "html body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantKind: KindDecode,
			outcome:  "auxiliary:status",
		},
		{
			name:     "json array is not an object",
			status:   http.StatusOK,
			body:     `["logs"]`,
			wantKind: KindDecode,
			outcome:  "auxiliary:ok",
		},
		{
			name:     "null body",
			status:   http.StatusOK,
			body:     `null`,
			wantKind: KindDecode,
			outcome:  "auxiliary:ok",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, obs := newTestForwarder(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			got, err := f.GetObject(context.Background(), "/buckets", DataTimeout)
			if tc.wantKind != "" {
				ue, ok := AsUpstreamError(err)
				require.True(t, ok, "expected upstream error, got %v", err)
				assert.Equal(t, tc.wantKind, ue.Kind)
				assert.NotEmpty(t, ue.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
			assert.Equal(t, []string{tc.outcome}, obs.outcomes)
		})
	}
}

func TestGetConnectionRefused(t *testing.T) {

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewForwarder(url, "auxiliary", http.DefaultClient, nil)

	_, err := f.Get(context.Background(), "/readyz", ReadinessTimeout)
	ue, ok := AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, ue.Kind)
	assert.Contains(t, ue.Error(), "connection refused")
}

func TestGetTimeout(t *testing.T) {

	f, obs := newTestForwarder(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	start := time.Now()
	_, err := f.Get(context.Background(), "/buckets", 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)

	ue, ok := AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, ue.Kind)
	assert.Equal(t, []string{"auxiliary:timeout"}, obs.outcomes)
}

func TestReplyStatusErr(t *testing.T) {

	assert.NoError(t, (&Reply{StatusCode: http.StatusOK}).StatusErr())

	err := (&Reply{StatusCode: http.StatusServiceUnavailable, Body: []byte(`{"status":"not ready","error":"boom"}` + "\n")}).StatusErr()
	ue, ok := AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, KindStatus, ue.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, ue.StatusCode)
	assert.Equal(t, `{"status":"not ready","error":"boom"}`, ue.Message)

	err = (&Reply{StatusCode: http.StatusBadGateway}).StatusErr()
	assert.EqualError(t, err, "Bad Gateway")
}

func TestGetPropagatesTelemetry(t *testing.T) {

	var gotTraceparent, gotRequestId string
	f, _ := newTestForwarder(t, func(w http.ResponseWriter, r *http.Request) {
		gotTraceparent = r.Header.Get(HeaderTraceparent)
		gotRequestId = r.Header.Get(HeaderRequestId)
		w.Write([]byte(`{}`))
	})

	telemetry := &Telemetry{Traceparent: *GenerateTraceparent(), RequestId: "req-1"}
	ctx := WithTelemetry(context.Background(), telemetry)

	_, err := f.GetObject(ctx, "/version", DataTimeout)
	require.NoError(t, err)

	assert.Equal(t, telemetry.Traceparent.String(), gotTraceparent)
	assert.Equal(t, "req-1", gotRequestId)
}
