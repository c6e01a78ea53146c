// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/selector"
)

const (
	routeCompatible = "/v1/compatible"
	routeReload     = "/v1/catalog/reload"
	routeHealth     = "/healthz"
	routeMetrics    = "/metrics"

	// MaxBodyBytes caps the size of a POST /v1/compatible body
	MaxBodyBytes = 64 << 10
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// compatibleBody is the POST body of /v1/compatible. instance_type and top_n are accepted as aliases.
type compatibleBody struct {
	selector.MatchRequest
	InstanceType string `json:"instance_type,omitempty"`
	TopN         int    `json:"top_n,omitempty"`
}

// Handler returns the routes of the service
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(routeCompatible, chain(routeCompatible, s.handleCompatible, s.logRequest, s.instrument))
	mux.HandleFunc(routeReload, chain(routeReload, s.handleReload, s.logRequest, s.instrument))
	mux.HandleFunc(routeHealth, chain(routeHealth, s.handleHealth, s.instrument))
	mux.Handle(routeMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleCompatible(w http.ResponseWriter, r *http.Request) {
	var req selector.MatchRequest
	var err error
	switch r.Method {
	case http.MethodGet:
		req, err = requestFromQuery(r.URL.Query())
	case http.MethodPost:
		req, err = requestFromBody(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, fmt.Sprintf("method %s not allowed", r.Method), http.StatusMethodNotAllowed)
		return
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, fmt.Sprintf("request body is larger than %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	response, err := s.Match(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, response)
	case errors.Is(err, selector.ErrInvalidRequest):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, selector.ErrUnknownInstanceType):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNoCatalog):
		writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.logger.Error("match failed", zap.Error(err))
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, fmt.Sprintf("method %s not allowed", r.Method), http.StatusMethodNotAllowed)
		return
	}
	generation, err := s.Reload(r.Context())
	if err != nil {
		s.logger.Warn("catalog reload failed", zap.Error(err))
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	c, _ := s.Catalog()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation": generation,
		"records":    c.Len(),
		"regions":    c.Regions(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	c, generation := s.Catalog()
	if c == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": ErrNoCatalog.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"generation": generation,
		"records":    c.Len(),
		"regions":    c.Regions(),
	})
}

// requestFromQuery reads a MatchRequest from GET query parameters
func requestFromQuery(query url.Values) (selector.MatchRequest, error) {
	req := selector.MatchRequest{
		CurrentInstanceType: query.Get("current_instance_type"),
		StoragePolicy:       selector.StoragePolicy(query.Get("storage_policy")),
	}
	if req.CurrentInstanceType == "" {
		req.CurrentInstanceType = query.Get("instance_type")
	}
	if region := query.Get("region"); region != "" {
		req.Region = &region
	}
	vcpus, err := parseIntParam(query, 32, "required_vcpus")
	if err != nil {
		return req, err
	}
	memory, err := parseIntParam(query, 64, "required_memory_mib")
	if err != nil {
		return req, err
	}
	gpus, err := parseIntParam(query, 32, "required_gpus")
	if err != nil {
		return req, err
	}
	maxResults, err := parseIntParam(query, 32, "max_results", "top_n")
	if err != nil {
		return req, err
	}
	req.RequiredVCpus = int32(vcpus)
	req.RequiredMemoryMiB = memory
	req.RequiredGpus = int32(gpus)
	req.MaxResults = int(maxResults)
	return req, nil
}

// parseIntParam parses the first of names present in the query, 0 when none are
func parseIntParam(query url.Values, bitSize int, names ...string) (int64, error) {
	for _, name := range names {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseInt(raw, 10, bitSize)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer, got %q", selector.ErrInvalidRequest, name, raw)
		}
		return value, nil
	}
	return 0, nil
}

// requestFromBody reads a MatchRequest from a JSON POST body
func requestFromBody(w http.ResponseWriter, r *http.Request) (selector.MatchRequest, error) {
	body := compatibleBody{}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return selector.MatchRequest{}, err
		}
		return selector.MatchRequest{}, fmt.Errorf("%w: invalid JSON payload: %s", selector.ErrInvalidRequest, err)
	}
	req := body.MatchRequest
	if req.CurrentInstanceType == "" {
		req.CurrentInstanceType = body.InstanceType
	}
	if req.MaxResults == 0 {
		req.MaxResults = body.TopN
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, ErrorResponse{Error: message, Code: code})
}
