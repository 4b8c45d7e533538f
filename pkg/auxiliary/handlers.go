package auxiliary

import (
	"context"
	"net/http"
	"time"

	"github.com/tdeslauriers/tandem/pkg/connect"
)

type VersionResponse struct {
	Version string `json:"auxiliary_version"`
}

type BucketsResponse struct {
	Buckets []string `json:"buckets"`
	Version string   `json:"auxiliary_version"`
}

type ParametersResponse struct {
	Parameters []string `json:"parameters"`
	Version    string   `json:"auxiliary_version"`
}

type ParameterResponse struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Version string `json:"auxiliary_version"`
}

func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request) {
	connect.WriteJson(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Service) handleBuckets(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithTimeout(r.Context(), s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	names, err := s.buckets.ListBuckets(ctx)
	s.observe(targetStorage, err, start)
	if err != nil {
		s.respondGatewayError(w, r, err)
		return
	}

	connect.WriteJson(w, http.StatusOK, BucketsResponse{
		Buckets: nonNil(names),
		Version: s.version,
	})
}

func (s *Service) handleParameters(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithTimeout(r.Context(), s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	names, err := s.params.DescribeParameters(ctx, 0)
	s.observe(targetParameters, err, start)
	if err != nil {
		s.respondGatewayError(w, r, err)
		return
	}

	connect.WriteJson(w, http.StatusOK, ParametersResponse{
		Parameters: nonNil(names),
		Version:    s.version,
	})
}

// handleParameter reads the name from the query string, decoded exactly once by url parsing.
func (s *Service) handleParameter(w http.ResponseWriter, r *http.Request) {

	name := r.URL.Query().Get("name")
	if name == "" {
		e := connect.ErrorHttp{StatusCode: http.StatusBadRequest, Message: MissingNameMsg}
		e.SendJsonErr(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	value, err := s.params.GetParameter(ctx, name, true)
	s.observe(targetParameters, err, start)
	if err != nil {
		s.respondGatewayError(w, r, err)
		return
	}

	connect.WriteJson(w, http.StatusOK, ParameterResponse{
		Name:    name,
		Value:   value,
		Version: s.version,
	})
}

// nonNil keeps empty listings encoding as [] rather than null.
func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
