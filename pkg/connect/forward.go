package connect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tdeslauriers/tandem/internal/util"
)

const (
	DataTimeout      = 5 * time.Second
	ReadinessTimeout = 2 * time.Second

	maxReplyBytes = 4 << 20
)

// UpstreamErrorKind distinguishes why a forwarded call failed.
type UpstreamErrorKind string

const (
	KindTransport UpstreamErrorKind = "transport" // connection refused, dns, reset
	KindTimeout   UpstreamErrorKind = "timeout"   // deadline fired before a reply arrived
	KindStatus    UpstreamErrorKind = "status"    // reply arrived with a non-2xx status
	KindDecode    UpstreamErrorKind = "decode"    // reply body was not a json object
)

// UpstreamError is the typed failure of a forwarded call.
type UpstreamError struct {
	Kind       UpstreamErrorKind
	StatusCode int // KindStatus only
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AsUpstreamError reports whether err is (or wraps) an *UpstreamError.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	ok := errors.As(err, &ue)
	return ue, ok
}

// Reply is a completed upstream exchange: status and raw body.
type Reply struct {
	StatusCode int
	Body       []byte
}

// Ok reports a 2xx status.
func (r *Reply) Ok() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// StatusErr returns nil for a 2xx reply, otherwise a KindStatus error whose
// message is the raw body text.
func (r *Reply) StatusErr() error {
	if r.Ok() {
		return nil
	}
	msg := string(bytes.TrimSpace(r.Body))
	if msg == "" {
		msg = http.StatusText(r.StatusCode)
	}
	return &UpstreamError{
		Kind:       KindStatus,
		StatusCode: r.StatusCode,
		Message:    msg,
	}
}

// Object decodes the body as a json object. Numbers keep their literal form so
// re-encoding does not alter them.
func (r *Reply) Object() (map[string]any, error) {

	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, &UpstreamError{
			Kind:    KindDecode,
			Message: fmt.Sprintf("failed to decode upstream json: %v", err),
			Err:     err,
		}
	}
	if obj == nil {
		return nil, &UpstreamError{
			Kind:    KindDecode,
			Message: "upstream json body was null, expected an object",
		}
	}

	return obj, nil
}

// Observer is notified once per forwarded call; metrics implement it.
type Observer interface {
	ObserveUpstream(target string, outcome string, elapsed time.Duration)
}

// Forwarder issues GET requests against a single upstream base url.
// It holds no per-request state and is safe for concurrent use.
type Forwarder struct {
	BaseUrl     string
	ServiceName string
	Client      Client
	Observer    Observer

	logger *slog.Logger
}

// Client is satisfied by *http.Client and the tls client.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewForwarder creates a Forwarder for the service at baseUrl.
func NewForwarder(baseUrl, name string, client Client, observer Observer) *Forwarder {
	return &Forwarder{
		BaseUrl:     baseUrl,
		ServiceName: name,
		Client:      client,
		Observer:    observer,

		logger: slog.Default().
			With(slog.String(util.PackageKey, util.PackageConnect)).
			With(slog.String(util.ComponentKey, util.ComponentForwarder)).
			With(slog.String("target_service", name)),
	}
}

// Get issues one GET to BaseUrl+path bounded by timeout. Only failures to obtain a
// reply are errors: a non-2xx status is returned as a Reply for the caller to judge.
// There are no retries.
func (f *Forwarder) Get(ctx context.Context, path string, timeout time.Duration) (*Reply, error) {

	url := f.BaseUrl + path
	start := time.Now()

	logger := f.logger.With(slog.String("target_url", url))
	telemetry, ok := GetTelemetryFromContext(ctx)
	if ok {
		logger = logger.With(telemetry.TelemetryFields()...)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.observe("transport", start)
		return nil, &UpstreamError{
			Kind:    KindTransport,
			Message: fmt.Sprintf("failed to create get request: %v", err),
			Err:     err,
		}
	}
	request.Header.Set("Accept", "application/json")

	if telemetry != nil {
		request.Header.Set(HeaderTraceparent, telemetry.Traceparent.String())
		request.Header.Set(HeaderRequestId, telemetry.RequestId)
	}

	response, err := f.Client.Do(request)
	if err != nil {
		kind := KindTransport
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		f.observe(string(kind), start)
		logger.Error("upstream request failed",
			slog.String("kind", string(kind)),
			slog.String("err", err.Error()))

		return nil, &UpstreamError{
			Kind:    kind,
			Message: err.Error(),
			Err:     err,
		}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxReplyBytes))
	if err != nil {
		kind := KindTransport
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		f.observe(string(kind), start)
		logger.Error("failed to read upstream response body", slog.String("err", err.Error()))

		return nil, &UpstreamError{
			Kind:    kind,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Err:     err,
		}
	}

	reply := &Reply{StatusCode: response.StatusCode, Body: body}
	if reply.Ok() {
		f.observe("ok", start)
	} else {
		f.observe("status", start)
		logger.Warn("upstream returned non-success status", slog.Int("status_code", response.StatusCode))
	}

	return reply, nil
}

// GetObject is Get followed by decoding the body as a json object, whatever the status.
// A non-2xx reply with a json body is passed through so the upstream's own error
// envelope reaches the client.
func (f *Forwarder) GetObject(ctx context.Context, path string, timeout time.Duration) (map[string]any, error) {

	reply, err := f.Get(ctx, path, timeout)
	if err != nil {
		return nil, err
	}

	obj, err := reply.Object()
	if err != nil {
		f.logger.Error("upstream body was not a json object",
			slog.String("target_url", f.BaseUrl+path),
			slog.Int("status_code", reply.StatusCode),
			slog.String("err", err.Error()))
		return nil, err
	}

	return obj, nil
}

func (f *Forwarder) observe(outcome string, start time.Time) {
	if f.Observer != nil {
		f.Observer.ObserveUpstream(f.ServiceName, outcome, time.Since(start))
	}
}
