package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copyleftdev/HARTREE/internal/config"
	"github.com/copyleftdev/HARTREE/internal/logging"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.VQE.LearningRate = 0.4
	cfg.VQE.MaxIterations = 100
	cfg.VQE.ConvTol = 1e-6
	cfg.VQE.Gradient = "parameter-shift"
	return cfg
}

func testServer(t *testing.T) (*Server, chi.Router) {
	t.Helper()
	logger := logging.New(logging.ErrorLevel, io.Discard)
	srv := NewServer(testConfig(), logger, zap.NewNop())
	t.Cleanup(func() { srv.Close() })

	router := chi.NewRouter()
	srv.RegisterRoutes(router)
	return srv, router
}

// rpcCall posts one JSON-RPC 2.0 request and decodes the response.
func rpcCall(t *testing.T, router chi.Router, method string, params interface{}) map[string]interface{} {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

func rpcResult(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	require.NotContains(t, response, "error", "unexpected RPC error: %v", response["error"])
	result, ok := response["result"].(map[string]interface{})
	require.True(t, ok, "result is not an object: %v", response["result"])
	return result
}

func rpcError(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "expected an RPC error, got %v", response)
	return errObj
}

// waitForStatus polls vqe.status until the run reaches the wanted state.
func waitForStatus(t *testing.T, router chi.Router, runID, want string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		status := rpcResult(t, rpcCall(t, router, "vqe.status", map[string]interface{}{"run_id": runID}))
		switch status["status"] {
		case want:
			return status
		case "failed":
			t.Fatalf("run failed: %v", status["error"])
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached status %q", runID, want)
	return nil
}

func TestStartAndCompleteRun(t *testing.T) {
	_, router := testServer(t)

	start := rpcResult(t, rpcCall(t, router, "vqe.start", map[string]interface{}{
		"molecule":    "H2",
		"bond_length": 0.742,
		"basis":       "STO-3G",
	}))
	runID, ok := start["run_id"].(string)
	require.True(t, ok)
	assert.Equal(t, "pending", start["status"])

	status := waitForStatus(t, router, runID, "completed")

	assert.Equal(t, "H2", status["molecule"])
	assert.Equal(t, "STO-3G", status["basis"])
	assert.InDelta(t, 1.0, status["progress"].(float64), 1e-12)

	reference := status["reference"].(map[string]interface{})
	assert.InDelta(t, -1.1173490349902797, reference["hf_energy"].(float64), 1e-9)
	assert.InDelta(t, -1.136189454, reference["exact_energy"].(float64), 1e-6)

	result := status["result"].(map[string]interface{})
	assert.InDelta(t, 0.209734574, result["theta"].(float64), 1e-6)
	assert.InDelta(t, reference["exact_energy"].(float64), result["energy"].(float64), 1e-8)
	assert.InDelta(t, 0, result["error_vs_exact"].(float64), 1e-8)
	assert.Equal(t, float64(100), result["iterations"])
	assert.Equal(t, true, result["converged"])

	history := status["history"].([]interface{})
	assert.Len(t, history, 100)
	first := history[0].(map[string]interface{})
	assert.InDelta(t, -1.1173490349902797, first["energy"].(float64), 1e-9)
}

func TestStartWithAdjointGradient(t *testing.T) {
	_, router := testServer(t)

	start := rpcResult(t, rpcCall(t, router, "vqe.start", map[string]interface{}{
		"molecule":       "H2",
		"bond_length":    0.742,
		"basis":          "STO-3G",
		"gradient":       "adjoint",
		"max_iterations": 40,
	}))
	runID := start["run_id"].(string)

	status := waitForStatus(t, router, runID, "completed")
	result := status["result"].(map[string]interface{})
	assert.Equal(t, float64(40), result["iterations"])
	assert.InDelta(t, 0.209734574, result["theta"].(float64), 1e-6)
}

func TestZeroMaxIterationsUsesDefaultBudget(t *testing.T) {
	srv, router := testServer(t)

	start := rpcResult(t, rpcCall(t, router, "vqe.start", map[string]interface{}{
		"molecule":       "H2",
		"bond_length":    0.742,
		"basis":          "STO-3G",
		"max_iterations": 0,
	}))
	runID := start["run_id"].(string)

	// The run state must carry the effective budget, not the raw zero,
	// so progress is reported against the iterations that actually run.
	srv.runsMu.RLock()
	maxIter := srv.runs[runID].MaxIterations
	srv.runsMu.RUnlock()
	assert.Equal(t, 100, maxIter)

	status := waitForStatus(t, router, runID, "completed")
	result := status["result"].(map[string]interface{})
	assert.Equal(t, float64(100), result["iterations"])
}

func TestStartValidation(t *testing.T) {
	_, router := testServer(t)

	tests := []struct {
		name    string
		params  map[string]interface{}
		message string
	}{
		{
			name:    "missing molecule",
			params:  map[string]interface{}{"bond_length": 0.742, "basis": "STO-3G"},
			message: "molecule is required",
		},
		{
			name:    "missing basis",
			params:  map[string]interface{}{"molecule": "H2", "bond_length": 0.742},
			message: "basis is required",
		},
		{
			name:    "non-positive bond length",
			params:  map[string]interface{}{"molecule": "H2", "bond_length": -1.0, "basis": "STO-3G"},
			message: "bond_length must be positive",
		},
		{
			name:    "unknown dataset",
			params:  map[string]interface{}{"molecule": "LiH", "bond_length": 0.742, "basis": "STO-3G"},
			message: "no dataset",
		},
		{
			name: "unknown gradient method",
			params: map[string]interface{}{
				"molecule": "H2", "bond_length": 0.742, "basis": "STO-3G", "gradient": "spsa",
			},
			message: "unknown gradient method",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errObj := rpcError(t, rpcCall(t, router, "vqe.start", tt.params))
			assert.Equal(t, float64(-32000), errObj["code"])
			assert.Contains(t, errObj["message"], tt.message)
		})
	}
}

func TestJSONRPCProtocolErrors(t *testing.T) {
	_, router := testServer(t)

	t.Run("parse error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, float64(-32700), rpcError(t, response)["code"])
	})

	t.Run("wrong version", func(t *testing.T) {
		body := []byte(`{"jsonrpc":"1.0","id":1,"method":"vqe.status","params":{}}`)
		req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, float64(-32600), rpcError(t, response)["code"])
	})

	t.Run("method not found", func(t *testing.T) {
		errObj := rpcError(t, rpcCall(t, router, "vqe.frobnicate", map[string]interface{}{}))
		assert.Equal(t, float64(-32601), errObj["code"])
	})

	t.Run("status of unknown run", func(t *testing.T) {
		errObj := rpcError(t, rpcCall(t, router, "vqe.status", map[string]interface{}{"run_id": "vqe_nope"}))
		assert.Contains(t, errObj["message"], "run not found")
	})
}

func TestCancelRun(t *testing.T) {
	_, router := testServer(t)

	// A large iteration budget keeps the run alive long enough to cancel.
	start := rpcResult(t, rpcCall(t, router, "vqe.start", map[string]interface{}{
		"molecule":       "H2",
		"bond_length":    0.742,
		"basis":          "STO-3G",
		"max_iterations": 500000,
	}))
	runID := start["run_id"].(string)

	cancel := rpcResult(t, rpcCall(t, router, "vqe.cancel", map[string]interface{}{"run_id": runID}))
	assert.Equal(t, "cancellation requested", cancel["status"])

	status := rpcResult(t, rpcCall(t, router, "vqe.status", map[string]interface{}{"run_id": runID}))
	assert.Equal(t, "cancelled", status["status"])

	// A terminal run cannot be cancelled again.
	errObj := rpcError(t, rpcCall(t, router, "vqe.cancel", map[string]interface{}{"run_id": runID}))
	assert.Contains(t, errObj["message"], "cannot cancel")
}

func TestCancelUnknownRun(t *testing.T) {
	_, router := testServer(t)
	errObj := rpcError(t, rpcCall(t, router, "vqe.cancel", map[string]interface{}{"run_id": "vqe_nope"}))
	assert.Contains(t, errObj["message"], "run not found")
}

func TestRESTEndpoints(t *testing.T) {
	_, router := testServer(t)

	body, err := json.Marshal(map[string]interface{}{
		"molecule":    "H2",
		"bond_length": 0.742,
		"basis":       "STO-3G",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/groundstate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	runID := started["run_id"].(string)

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/status/%s", runID), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status/vqe_nope", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/run/vqe_nope", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRESTInvalidBody(t *testing.T) {
	_, router := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/groundstate", bytes.NewReader([]byte("{oops")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
