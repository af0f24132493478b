package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestReporterRecordsCompletionsAndFailures(t *testing.T) {
	r := NewReporter("run_001", 3)
	r.RecordCompletion(false)
	r.RecordCompletion(true)
	r.SetInFlight([]string{"00003"})
	r.SetInterrupted(true)

	snap := r.Snapshot()
	assert.Equal(t, "run_001", snap.RunName)
	assert.Equal(t, 3, snap.TotalScenarios)
	assert.Equal(t, 2, snap.CompletedScenarios)
	assert.Equal(t, 1, snap.FailedScenarios)
	assert.Equal(t, []string{"00003"}, snap.InFlight)
	assert.True(t, snap.Interrupted)
}

func TestRouterHealthAndStatusEndpoints(t *testing.T) {
	reporter := NewReporter("run_002", 5)
	reporter.RecordCompletion(false)
	router := NewRouter(reporter)

	healthReq := httptest.NewRequest(http.MethodGet, "/health", nil)
	healthRec := httptest.NewRecorder()
	router.ServeHTTP(healthRec, healthReq)
	require.Equal(t, http.StatusOK, healthRec.Code)

	statusReq := httptest.NewRequest(http.MethodGet, "/status", nil)
	statusRec := httptest.NewRecorder()
	router.ServeHTTP(statusRec, statusReq)
	require.Equal(t, http.StatusOK, statusRec.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &snap))
	assert.Equal(t, "run_002", snap.RunName)
	assert.Equal(t, 1, snap.CompletedScenarios)
}

func TestRegisterHealthServerReportsServing(t *testing.T) {
	srv := grpc.NewServer()
	h := RegisterHealthServer(srv)
	t.Cleanup(srv.Stop)

	resp, err := h.Check(t.Context(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
