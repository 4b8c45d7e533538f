// Package facade is the public main service: it forwards each route to the auxiliary
// service and relabels the response with its own version.
package facade

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/tdeslauriers/tandem/internal/util"
	"github.com/tdeslauriers/tandem/pkg/connect"
	"github.com/tdeslauriers/tandem/pkg/diagnostics"
	"github.com/tdeslauriers/tandem/pkg/metrics"
)

const (
	VersionKey     = "main_version"
	MissingNameMsg = "Missing 'name' query parameter"
)

// Service handles the main routes.
type Service struct {
	version string
	aux     *connect.Forwarder
	metrics *metrics.Metrics

	logger *slog.Logger
}

// New creates the main service. aux must point at the auxiliary base url.
func New(version string, aux *connect.Forwarder, m *metrics.Metrics) *Service {
	return &Service{
		version: version,
		aux:     aux,
		metrics: m,

		logger: slog.Default().
			With(slog.String(util.PackageKey, util.PackageFacade)).
			With(slog.String(util.ComponentKey, util.ComponentMain)).
			With(slog.String(util.ServiceKey, util.ServiceMain)),
	}
}

// Handler returns the router for every main route.
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
	r.Get("/readyz", diagnostics.ReadinessHandler(s.probe, connect.ReadinessTimeout))
	r.Get("/version", s.handleForward("/version"))
	r.Get("/buckets", s.handleForward("/buckets"))
	r.Get("/parameters", s.handleForward("/parameters"))
	r.Get("/parameter", s.handleParameter)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// probe is ready only when auxiliary answers its own /readyz with a 2xx.
// A non-2xx reply fails with the raw upstream body as the message.
func (s *Service) probe(ctx context.Context) error {

	reply, err := s.aux.Get(ctx, "/readyz", connect.ReadinessTimeout)
	if err != nil {
		return err
	}

	return reply.StatusErr()
}

// forward is the single pass-through used by every data route: it always yields a
// json object, either auxiliary's body or an error envelope, and never fails.
func (s *Service) forward(ctx context.Context, path string) map[string]any {

	obj, err := s.aux.GetObject(ctx, path, connect.DataTimeout)
	if err != nil {
		return errorBody(err)
	}

	return obj
}

func (s *Service) handleForward(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connect.WriteJson(w, http.StatusOK, mergeEnvelope(s.version, s.forward(r.Context(), path)))
	}
}

// handleParameter validates locally, then re-encodes the decoded name exactly once
// for the forwarded query string.
func (s *Service) handleParameter(w http.ResponseWriter, r *http.Request) {

	name := r.URL.Query().Get("name")
	if name == "" {
		e := connect.ErrorHttp{StatusCode: http.StatusBadRequest, Message: MissingNameMsg}
		e.SendJsonErr(w)
		return
	}

	connect.WriteJson(w, http.StatusOK, mergeEnvelope(s.version, s.forward(r.Context(), parameterPath(name))))
}

// parameterPath builds the auxiliary path for a decoded parameter name.
func parameterPath(name string) string {
	return "/parameter?" + url.Values{"name": {name}}.Encode()
}
