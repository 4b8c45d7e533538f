// Package auxiliary is the backend service that owns every call to the cloud gateway
// and normalizes the responses into json tagged with its own version.
package auxiliary

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tdeslauriers/tandem/internal/util"
	"github.com/tdeslauriers/tandem/pkg/connect"
	"github.com/tdeslauriers/tandem/pkg/diagnostics"
	"github.com/tdeslauriers/tandem/pkg/gateway"
	"github.com/tdeslauriers/tandem/pkg/metrics"
)

const (
	VersionKey     = "auxiliary_version"
	MissingNameMsg = "Missing 'name' query parameter"

	targetStorage    = "object_storage"
	targetParameters = "parameter_store"
)

// Service handles the auxiliary routes. It is stateless between requests.
type Service struct {
	version string
	buckets gateway.BucketLister
	params  gateway.ParameterStore
	metrics *metrics.Metrics

	gatewayTimeout   time.Duration
	readinessTimeout time.Duration

	logger *slog.Logger
}

// New creates the auxiliary service around its gateway clients.
func New(version string, buckets gateway.BucketLister, params gateway.ParameterStore, m *metrics.Metrics) *Service {
	return &Service{
		version: version,
		buckets: buckets,
		params:  params,
		metrics: m,

		gatewayTimeout:   connect.DataTimeout,
		readinessTimeout: connect.ReadinessTimeout,

		logger: slog.Default().
			With(slog.String(util.PackageKey, util.PackageAuxiliary)).
			With(slog.String(util.ComponentKey, util.ComponentAuxiliary)).
			With(slog.String(util.ServiceKey, util.ServiceAuxiliary)),
	}
}

// Handler returns the router for every auxiliary route.
func (s *Service) Handler() http.Handler {

	r := chi.NewRouter()
	r.Use(connect.Observe(s.logger), s.metrics.Instrument, connect.Recover(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		e := connect.ErrorHttp{StatusCode: http.StatusNotFound, Message: "Not Found"}
		e.SendJsonErr(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		e := connect.ErrorHttp{StatusCode: http.StatusMethodNotAllowed, Message: "Method Not Allowed"}
		e.SendJsonErr(w)
	})

	r.Get("/healthz", diagnostics.HealthCheckHandler)
	r.Get("/readyz", diagnostics.ReadinessHandler(s.probe, s.readinessTimeout))
	r.Get("/version", s.handleVersion)
	r.Get("/buckets", s.handleBuckets)
	r.Get("/parameters", s.handleParameters)
	r.Get("/parameter", s.handleParameter)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// probe asks the parameter store for at most one descriptor: cheap, and it proves
// credentials, network, and region all work.
func (s *Service) probe(ctx context.Context) error {

	start := time.Now()
	_, err := s.params.DescribeParameters(ctx, 1)
	s.observe(targetParameters, err, start)

	return err
}

func (s *Service) observe(target string, err error, start time.Time) {

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	default:
		outcome = "error"
	}

	s.metrics.ObserveUpstream(target, outcome, time.Since(start))
}

// respondGatewayError maps a gateway failure to a json error with a typed status.
func (s *Service) respondGatewayError(w http.ResponseWriter, r *http.Request, err error) {

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gateway.ErrParameterNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gateway.ErrAccessDenied):
		status = http.StatusForbidden
	}

	log := s.logger
	if telemetry, ok := connect.GetTelemetryFromContext(r.Context()); ok {
		log = log.With(telemetry.TelemetryFields()...)
	}
	log.Error("gateway call failed", slog.Int("status_code", status), slog.String("err", err.Error()))

	e := connect.ErrorHttp{StatusCode: status, Message: err.Error()}
	e.SendJsonErr(w)
}
