package connect

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tdeslauriers/tandem/pkg/validate"
)

const (
	HeaderTraceparent = "traceparent"
	HeaderRequestId   = "X-Request-Id"
)

// Telemetry contains request fields used to correlate log lines across both services.
type Telemetry struct {
	Traceparent Traceparent `json:"traceparent,omitempty"`
	RequestId   string      `json:"request_id,omitempty"`
	Method      string      `json:"method,omitempty"`
	Path        string      `json:"path,omitempty"`
	RemoteAddr  string      `json:"remote_addr,omitempty"`
	UserAgent   string      `json:"user_agent,omitempty"`
	StartTime   time.Time   `json:"start_time,omitempty"`
}

// TelemetryFields returns the slog attributes for the request.
func (t *Telemetry) TelemetryFields() []any {

	fields := []any{
		slog.String("trace_id", t.Traceparent.TraceId),
		slog.String("span_id", t.Traceparent.SpanId),
		slog.String("request_id", t.RequestId),
	}

	if t.Traceparent.ParentSpanId != "" {
		fields = append(fields, slog.String("parent_span_id", t.Traceparent.ParentSpanId))
	}

	if t.Method != "" {
		fields = append(fields, slog.String("method", t.Method))
	}

	if t.Path != "" {
		fields = append(fields, slog.String("path", t.Path))
	}

	if t.RemoteAddr != "" {
		fields = append(fields, slog.String("remote_addr", t.RemoteAddr))
	}

	if t.UserAgent != "" {
		fields = append(fields, slog.String("user_agent", t.UserAgent))
	}

	return fields
}

// TraceparentVersion is the version of the W3C traceparent header: used as default
const TraceparentVersion string = "00"

// Traceparent is the W3C traceparent header, split into its fields.
type Traceparent struct {
	Version      string `json:"version"`
	TraceId      string `json:"trace_id"`                 // the whole transaction across services
	ParentSpanId string `json:"parent_span_id,omitempty"` // span id of the caller
	SpanId       string `json:"span_id"`                  // this service's operation
	Flags        string `json:"flags"`
}

// String renders the header value sent to the next hop: the current span becomes
// the callee's parent.
func (t Traceparent) String() string {
	return fmt.Sprintf("%s-%s-%s-%s", t.Version, t.TraceId, t.SpanId, t.Flags)
}

func generateTraceId() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateSpanId() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateTraceparent starts a new trace rooted at this service.
func GenerateTraceparent() *Traceparent {
	return &Traceparent{
		Version: TraceparentVersion,
		TraceId: generateTraceId(),
		SpanId:  generateSpanId(),
		Flags:   "00",
	}
}

// ParseTraceparent parses the traceparent header of a request and opens a new span under it.
func ParseTraceparent(r *http.Request) (*Traceparent, error) {

	header := r.Header.Get(HeaderTraceparent)
	if header == "" {
		return nil, fmt.Errorf("traceparent header is missing")
	}

	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid traceparent header format: expected 4 parts, got %d", len(parts))
	}

	version, traceId, parentId, flags := parts[0], parts[1], parts[2], parts[3]

	if len(version) != 2 || version == "ff" {
		return nil, fmt.Errorf("missing or invalid version in traceparent header")
	}

	if !validate.IsValidTraceId(traceId) {
		return nil, fmt.Errorf("missing or invalid trace id in traceparent header")
	}

	if !validate.IsValidSpanId(parentId) {
		return nil, fmt.Errorf("missing or invalid span id in traceparent header")
	}

	if !validate.IsValidTraceFlags(flags) {
		return nil, fmt.Errorf("missing or invalid flags in traceparent header")
	}

	return &Traceparent{
		Version:      version,
		TraceId:      traceId,
		ParentSpanId: parentId,
		SpanId:       generateSpanId(),
		Flags:        flags,
	}, nil
}

// ObtainTelemetry collects telemetry from a request, generating a trace and
// request id when the caller did not send usable ones.
func ObtainTelemetry(r *http.Request, logger *slog.Logger) *Telemetry {

	if logger == nil {
		logger = slog.Default()
	}

	tp, err := ParseTraceparent(r)
	if err != nil {
		tp = GenerateTraceparent()

		// a missing header is normal for the public edge; only log malformed ones
		if r.Header.Get(HeaderTraceparent) != "" {
			logger.Warn("failed to parse traceparent header: generating new traceparent",
				slog.String("err", err.Error()),
				slog.String("new_trace_id", tp.TraceId),
				slog.String("path", validate.SanitizePath(r.URL.Path)),
			)
		}
	}

	requestId := validate.SanitizeRequestId(r.Header.Get(HeaderRequestId))
	if requestId == "" {
		requestId = uuid.NewString()
	}

	return &Telemetry{
		Traceparent: *tp,
		RequestId:   requestId,
		Method:      validate.SanitizeMethod(r.Method),
		Path:        validate.SanitizePath(r.URL.RequestURI()),
		RemoteAddr:  validate.SanitizeIp(getClientIp(r)),
		UserAgent:   validate.SanitizeUserAgent(r.UserAgent()),
		StartTime:   time.Now(),
	}
}

// getClientIp extracts the client ip from proxy headers or the remote address
func getClientIp(r *http.Request) string {

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

// set up context key type to avoid collisions
type telemetryKey string

const TelemetryKey telemetryKey = "telemetry"

// WithTelemetry returns a copy of ctx carrying t.
func WithTelemetry(ctx context.Context, t *Telemetry) context.Context {
	return context.WithValue(ctx, TelemetryKey, t)
}

// GetTelemetryFromContext retrieves the Telemetry struct from the request context
func GetTelemetryFromContext(ctx context.Context) (*Telemetry, bool) {
	telemetry, ok := ctx.Value(TelemetryKey).(*Telemetry)
	return telemetry, ok
}

// Observe is middleware that attaches telemetry to the request context, echoes the
// request id, and logs one line per request when it completes.
func Observe(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			telemetry := ObtainTelemetry(r, logger)
			rw := NewResponseWriter(w)
			rw.Header().Set(HeaderRequestId, telemetry.RequestId)

			defer func() {
				fields := append(telemetry.TelemetryFields(),
					slog.Int("status_code", rw.Status()),
					slog.Duration("duration", time.Since(telemetry.StartTime)),
				)
				if rw.Status() >= http.StatusInternalServerError {
					logger.Error("request completed", fields...)
					return
				}
				logger.Info("request completed", fields...)
			}()

			next.ServeHTTP(rw, r.WithContext(WithTelemetry(r.Context(), telemetry)))
		})
	}
}

// Recover converts a panicking handler into a 500 json error instead of a dropped connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil || rec == http.ErrAbortHandler {
					if rec != nil {
						panic(rec)
					}
					return
				}

				logger.Error("handler panicked", slog.String("panic", fmt.Sprint(rec)))
				e := ErrorHttp{
					StatusCode: http.StatusInternalServerError,
					Message:    "Internal Server Error",
				}
				e.SendJsonErr(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
