package server

import (
	"encoding/json"
	"net/http"

	"github.com/insuregraph/insuregraph/internal/pipeline"
	"github.com/insuregraph/insuregraph/internal/types"
	"github.com/insuregraph/insuregraph/pkg/version"
)

// QueryRequest is the POST /v1/query body.
type QueryRequest struct {
	Query   string           `json:"query"`
	Options pipeline.Options `json:"options"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type healthResponse struct {
	Status     types.HealthState             `json:"status"`
	Components map[string]types.HealthStatus `json:"components"`
}

type modelEntry struct {
	Provider         string   `json:"provider"`
	Name             string   `json:"name"`
	ContextWindow    int      `json:"context_window"`
	MaxOutput        int      `json:"max_output"`
	Features         []string `json:"features"`
	SupportsJSONMode bool     `json:"supports_json_mode"`
}

type modelsResponse struct {
	Models []modelEntry `json:"models"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	result, err := s.runner.RunQuery(r.Context(), req.Query, req.Options)
	if err != nil {
		// Only input validation produces an error here.
		writeError(w, http.StatusBadRequest, err.Error(), string(types.CodeOf(err)))
		return
	}

	status := http.StatusOK
	if result.Status == pipeline.StatusFailed {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, result)
}

// handleHealth aggregates component health. The overall state is the worst
// component state: any unhealthy component makes the service unhealthy, any
// degraded one makes it degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	overall := types.HealthStateHealthy
	components := make(map[string]types.HealthStatus, len(s.components))

	for name, checker := range s.components {
		status := checker.Health(r.Context())
		components[name] = status

		switch status.State {
		case types.HealthStateUnhealthy:
			overall = types.HealthStateUnhealthy
		case types.HealthStateDegraded:
			if overall == types.HealthStateHealthy {
				overall = types.HealthStateDegraded
			}
		}
	}

	status := http.StatusOK
	if overall == types.HealthStateUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: overall, Components: components})
}

// handleModels lists every model the registered providers advertise, so
// operators can confirm which tiers a deployment will actually call.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := modelsResponse{Models: []modelEntry{}}
	if s.registry == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	for _, name := range s.registry.ListProviders() {
		provider, err := s.registry.GetProvider(name)
		if err != nil {
			continue
		}
		models, err := provider.Models(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable,
				"model listing failed for provider "+name, string(types.CodeOf(err)))
			return
		}
		for _, m := range models {
			resp.Models = append(resp.Models, modelEntry{
				Provider:         name,
				Name:             m.Name,
				ContextWindow:    m.ContextWindow,
				MaxOutput:        m.MaxOutput,
				Features:         m.Features,
				SupportsJSONMode: m.SupportsJSONMode(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Info())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
