package analysis

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation_engine/pkg/core/dispatch"
)

func newTestServer(t *testing.T, maxBatch int) *httptest.Server {
	t.Helper()
	h := NewHandler(dispatch.New(dispatch.Deps{}, zerolog.Nop()), maxBatch, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 0)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeRoundTrip(t *testing.T) {
	srv := newTestServer(t, 0)
	resp, out := post(t, srv.URL+"/analyze",
		`{"task": "DCF", "model_type": "randomforest", "data": {"cashFlows": ["110", 121]}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := uuid.Parse(out["analysis_id"].(string))
	assert.NoError(t, err)
	assert.Equal(t, "DCF", out["task"])

	result := out["result"].(map[string]any)
	assert.Equal(t, 200.0, result["present_value"])
	assert.Equal(t, "simple", result["analysis_variant"])
}

func TestAnalyzeAcceptsSloppyJSON(t *testing.T) {
	srv := newTestServer(t, 0)
	resp, out := post(t, srv.URL+"/analyze", `{"task": "DCF", "data": {"cash_flows": [110,]},}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100.0, out["result"].(map[string]any)["present_value"])
}

func TestAnalyzeErrorRecordIsReturned(t *testing.T) {
	srv := newTestServer(t, 0)
	resp, out := post(t, srv.URL+"/analyze",
		`{"task": "PE Analysis", "data": {"price": 10, "earnings": -1, "sector_avg_pe": 12}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := out["result"].(map[string]any)
	assert.Len(t, result, 1)
	assert.Contains(t, result["error"], "earnings must be positive")
}

func TestAnalyzeRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, 0)

	resp, out := post(t, srv.URL+"/analyze", `{"task": "Sentiment", "data": {}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "unknown task")
	assert.Len(t, out["supported_tasks"], 5)

	resp, out = post(t, srv.URL+"/analyze", `{"task": "DCF"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "data failed required")

	resp, _ = post(t, srv.URL+"/analyze", `not json at all`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBatch(t *testing.T) {
	srv := newTestServer(t, 2)
	resp, out := post(t, srv.URL+"/analyze/batch",
		`{"task": "DCF", "records": [{"cash_flows": [110]}, {"cash_flows": [-55]}]}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, out["count"])
	results := out["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)["result"].(map[string]any)
	second := results[1].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, 100.0, first["present_value"])
	assert.Equal(t, -50.0, second["present_value"])

	resp, _ = post(t, srv.URL+"/analyze/batch",
		`{"task": "DCF", "records": [{"a": 1}, {"a": 2}, {"a": 3}]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/analyze/batch", `{"task": "DCF", "records": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
