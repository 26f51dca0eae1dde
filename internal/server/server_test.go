package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/llm/providers"
	"github.com/insuregraph/insuregraph/internal/observability"
	"github.com/insuregraph/insuregraph/internal/pipeline"
	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

type stubRunner struct {
	result *pipeline.QueryResult
	err    error

	lastQuery string
	lastOpts  pipeline.Options
}

func (s *stubRunner) RunQuery(ctx context.Context, query string, opts pipeline.Options) (*pipeline.QueryResult, error) {
	s.lastQuery = query
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubHealth struct {
	status types.HealthStatus
}

func (s stubHealth) Health(ctx context.Context) types.HealthStatus {
	return s.status
}

func newTestServer(runner pipeline.Runner, components map[string]HealthChecker) *Server {
	return newTestServerWithRegistry(runner, components, nil)
}

func newTestServerWithRegistry(runner pipeline.Runner, components map[string]HealthChecker, registry llm.Registry) *Server {
	logger := observability.NewTracedLogger(
		observability.NewTextHandler(io.Discard, slog.LevelError), "server")
	return New(runner, components, registry, logger, Options{
		Host:            "127.0.0.1",
		Port:            0,
		ShutdownTimeout: time.Second,
		AllowedOrigins:  []string{"*"},
	})
}

func postQuery(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleQueryApproved(t *testing.T) {
	runner := &stubRunner{result: &pipeline.QueryResult{
		Status:  pipeline.StatusApproved,
		Message: "answer approved",
		Answer:  &policy.Answer{Summary: "보장됩니다.", Confidence: 0.9, Sources: []string{"clause-3-1"}},
		Sources: []string{"clause-3-1"},
	}}
	srv := newTestServer(runner, nil)

	rec := postQuery(t, srv, QueryRequest{
		Query:   "갑상선암 보장돼요?",
		Options: pipeline.Options{MaxHops: 2, TopK: 5},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "갑상선암 보장돼요?", runner.lastQuery)
	assert.Equal(t, 2, runner.lastOpts.MaxHops)
	assert.Equal(t, 5, runner.lastOpts.TopK)

	var result pipeline.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, pipeline.StatusApproved, result.Status)
	require.NotNil(t, result.Answer)
	assert.Equal(t, "보장됩니다.", result.Answer.Summary)
}

func TestHandleQueryInputError(t *testing.T) {
	runner := &stubRunner{err: types.NewError(types.QUERY_EMPTY, "query text cannot be empty")}
	srv := newTestServer(runner, nil)

	rec := postQuery(t, srv, QueryRequest{Query: ""})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(types.QUERY_EMPTY), resp.Code)
}

func TestHandleQueryFailedResult(t *testing.T) {
	runner := &stubRunner{result: &pipeline.QueryResult{
		Status: pipeline.StatusFailed,
		Reason: string(types.GRAPH_STORE_UNAVAILABLE),
	}}
	srv := newTestServer(runner, nil)

	rec := postQuery(t, srv, QueryRequest{Query: "갑상선암 보장돼요?"})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var result pipeline.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, pipeline.StatusFailed, result.Status)
	assert.Nil(t, result.Answer)
}

func TestHandleQueryMalformedBody(t *testing.T) {
	srv := newTestServer(&stubRunner{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]HealthChecker
		wantCode   int
		wantState  types.HealthState
	}{
		{
			name: "all healthy",
			components: map[string]HealthChecker{
				"graph":  stubHealth{types.Healthy("connected")},
				"vector": stubHealth{types.Healthy("")},
			},
			wantCode:  http.StatusOK,
			wantState: types.HealthStateHealthy,
		},
		{
			name: "one degraded",
			components: map[string]HealthChecker{
				"graph":  stubHealth{types.Healthy("connected")},
				"vector": stubHealth{types.Degraded("slow")},
			},
			wantCode:  http.StatusOK,
			wantState: types.HealthStateDegraded,
		},
		{
			name: "one unhealthy",
			components: map[string]HealthChecker{
				"graph":  stubHealth{types.Unhealthy("connection refused")},
				"vector": stubHealth{types.Healthy("")},
			},
			wantCode:  http.StatusServiceUnavailable,
			wantState: types.HealthStateUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubRunner{}, tt.components)

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			var resp healthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Len(t, resp.Components, len(tt.components))
		})
	}
}

func TestHandleModels(t *testing.T) {
	registry := llm.NewRegistry()
	require.NoError(t, registry.RegisterProvider(providers.NewNamedMockProvider("openai-fallback", nil)))
	require.NoError(t, registry.RegisterProvider(providers.NewNamedMockProvider("openai-primary", nil)))
	srv := newTestServerWithRegistry(&stubRunner{}, nil, registry)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp modelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "openai-fallback", resp.Models[0].Provider)
	assert.Equal(t, "openai-primary", resp.Models[1].Provider)
	for _, m := range resp.Models {
		assert.Equal(t, "mock-model", m.Name)
		assert.True(t, m.SupportsJSONMode)
	}
}

func TestHandleModelsNoRegistry(t *testing.T) {
	srv := newTestServer(&stubRunner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp modelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Models)
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(&stubRunner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "goVersion")
}
