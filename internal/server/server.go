// Package server exposes VQE ground-state runs as an HTTP job API: a
// JSON-RPC 2.0 endpoint plus REST aliases for starting, monitoring, and
// cancelling runs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/HARTREE/internal/chemistry"
	"github.com/copyleftdev/HARTREE/internal/config"
	"github.com/copyleftdev/HARTREE/internal/logging"
	"github.com/copyleftdev/HARTREE/internal/quantum"
	"github.com/copyleftdev/HARTREE/internal/vqe"
)

// Logger defines the logging interface used by the server.
// This allows us to be flexible with our logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// defaultWires are the orbital indices of the double excitation in the
// minimal H2 basis: two occupied and two virtual spin orbitals.
var defaultWires = quantum.DoubleExcitationWires{0, 1, 2, 3}

// RunState tracks one VQE job through its lifecycle. It is guarded by the
// server's mutex.
type RunState struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time

	Molecule   string
	BondLength float64
	Basis      string

	// HFEnergy and ExactEnergy are the Hartree-Fock reference and the
	// dense-diagonalization ground state, computed once at job start.
	HFEnergy    float64
	ExactEnergy float64

	MaxIterations int
	Result        *vqe.Result
	Solver        vqe.Solver
	CancelFunc    context.CancelFunc
	Err           error
}

// Server implements the HTTP and JSON-RPC surface of the VQE service.
type Server struct {
	cfg     *config.Config
	logger  Logger
	zlogger *zap.Logger

	runs   map[string]*RunState
	runsMu sync.RWMutex // Protects the runs map
}

// NewServer creates a new server instance. The zap logger is handed to
// solvers so their iteration traces share the service's log sink.
func NewServer(cfg *config.Config, logger Logger, zlogger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		zlogger: zlogger,
		runs:    make(map[string]*RunState),
	}
}

// RegisterRoutes mounts the API on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/groundstate", s.handleGroundState)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/run/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// startParams are the parameters of vqe.start. Unset numeric fields fall
// back to the configured defaults.
type startParams struct {
	Molecule      string   `json:"molecule"`
	BondLength    float64  `json:"bond_length"`
	Basis         string   `json:"basis"`
	InitialTheta  float64  `json:"initial_theta"`
	LearningRate  *float64 `json:"learning_rate,omitempty"`
	Momentum      *float64 `json:"momentum,omitempty"`
	MaxIterations *int     `json:"max_iterations,omitempty"`
	ConvTol       *float64 `json:"conv_tol,omitempty"`
	EarlyStop     *bool    `json:"early_stop,omitempty"`
	Gradient      string   `json:"gradient,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      interface{}     `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "vqe.start":
		var params startParams
		if jsonErr := json.Unmarshal(request.Params, &params); jsonErr != nil {
			s.respondWithError(w, -32602, "Invalid params", request.ID)
			return
		}
		result, err = s.startRun(params)
	case "vqe.status":
		var params struct {
			RunID string `json:"run_id"`
		}
		if jsonErr := json.Unmarshal(request.Params, &params); jsonErr != nil {
			s.respondWithError(w, -32602, "Invalid params", request.ID)
			return
		}
		result, err = s.runStatus(params.RunID)
	case "vqe.cancel":
		var params struct {
			RunID string `json:"run_id"`
		}
		if jsonErr := json.Unmarshal(request.Params, &params); jsonErr != nil {
			s.respondWithError(w, -32602, "Invalid params", request.ID)
			return
		}
		err = s.cancelRun(params.RunID)
		result = map[string]string{"status": "cancellation requested"}
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// startRun validates the request, loads the problem, and launches the
// solve in a goroutine.
func (s *Server) startRun(params startParams) (interface{}, error) {
	if params.Molecule == "" {
		return nil, fmt.Errorf("molecule is required")
	}
	if params.Basis == "" {
		return nil, fmt.Errorf("basis is required")
	}
	if params.BondLength <= 0 {
		return nil, fmt.Errorf("bond_length must be positive")
	}

	dataset, err := chemistry.Load(params.Molecule, params.BondLength, params.Basis)
	if err != nil {
		return nil, err
	}

	eval, err := vqe.NewEvaluator(dataset.Hamiltonian, defaultWires)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}

	hfEnergy, err := eval.Energy(dataset.HFState, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to compute Hartree-Fock energy: %w", err)
	}
	exactEnergy, err := dataset.Hamiltonian.GroundStateEnergy()
	if err != nil {
		return nil, fmt.Errorf("failed to diagonalize Hamiltonian: %w", err)
	}

	solverCfg := vqe.SolverConfig{
		Evaluator:      eval,
		ReferenceState: dataset.HFState,
		InitialTheta:   params.InitialTheta,
		LearningRate:   s.cfg.VQE.LearningRate,
		Momentum:       s.cfg.VQE.Momentum,
		MaxIterations:  s.cfg.VQE.MaxIterations,
		ConvTol:        s.cfg.VQE.ConvTol,
		EarlyStop:      s.cfg.VQE.EarlyStop,
	}
	if params.LearningRate != nil {
		solverCfg.LearningRate = *params.LearningRate
	}
	if params.Momentum != nil {
		solverCfg.Momentum = *params.Momentum
	}
	if params.MaxIterations != nil {
		solverCfg.MaxIterations = *params.MaxIterations
	}
	if params.ConvTol != nil {
		solverCfg.ConvTol = *params.ConvTol
	}
	if params.EarlyStop != nil {
		solverCfg.EarlyStop = *params.EarlyStop
	}
	// Mirror the solver's default so progress is reported against the
	// iteration budget that actually runs.
	if solverCfg.MaxIterations < 1 {
		solverCfg.MaxIterations = 100
	}

	gradientMethod := params.Gradient
	if gradientMethod == "" {
		gradientMethod = s.cfg.VQE.Gradient
	}
	switch gradientMethod {
	case "", "parameter-shift":
		solverCfg.Gradient = vqe.NewParameterShift(eval)
	case "adjoint":
		solverCfg.Gradient = vqe.NewAdjoint(eval)
	default:
		return nil, fmt.Errorf("unknown gradient method %q", gradientMethod)
	}

	solver, err := vqe.NewGradientDescent(solverCfg, s.zlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create solver: %w", err)
	}

	id := fmt.Sprintf("vqe_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())

	state := &RunState{
		ID:            id,
		Status:        "pending",
		StartTime:     time.Now(),
		LastUpdated:   time.Now(),
		Molecule:      params.Molecule,
		BondLength:    params.BondLength,
		Basis:         params.Basis,
		HFEnergy:      hfEnergy,
		ExactEnergy:   exactEnergy,
		MaxIterations: solverCfg.MaxIterations,
		Solver:        solver,
		CancelFunc:    cancel,
	}

	s.runsMu.Lock()
	s.runs[id] = state
	s.runsMu.Unlock()

	go s.runSolve(ctx, state)

	return map[string]interface{}{
		"run_id": id,
		"status": "pending",
	}, nil
}

// runSolve executes one VQE job to completion.
func (s *Server) runSolve(ctx context.Context, state *RunState) {
	s.runsMu.Lock()
	// The job may have been cancelled while still pending.
	if state.Status == "cancelled" {
		s.runsMu.Unlock()
		return
	}
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.runsMu.Unlock()

	result, err := state.Solver.Solve(ctx)

	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	// Cancellation may have already marked the job.
	if state.Status == "cancelled" {
		return
	}

	if errors.Is(err, context.Canceled) {
		state.Status = "cancelled"
		now := time.Now()
		state.EndTime = &now
		state.LastUpdated = now
		return
	}

	if err != nil {
		s.logger.Error("VQE run failed", map[string]interface{}{
			"run_id": state.ID,
			"error":  err.Error(),
		})
		state.Status = "failed"
		state.Err = err
	} else {
		state.Status = "completed"
		state.Result = result
		s.logger.Info("VQE run completed", map[string]interface{}{
			"run_id":     state.ID,
			"theta":      result.Theta,
			"energy":     result.Energy,
			"iterations": result.Iterations,
			"converged":  result.Converged,
		})
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
}

// runStatus reports the state, progress, and results of a run.
func (s *Server) runStatus(runID string) (interface{}, error) {
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}

	s.runsMu.RLock()
	defer s.runsMu.RUnlock()

	state, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run not found")
	}

	progress := 0.0
	history := state.Solver.GetHistory()
	if state.MaxIterations > 0 {
		progress = float64(len(history)) / float64(state.MaxIterations)
	}
	if state.Status == "completed" {
		progress = 1.0
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"progress":    progress,
		"molecule":    state.Molecule,
		"bond_length": state.BondLength,
		"basis":       state.Basis,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
		"reference": map[string]interface{}{
			"hf_energy":    state.HFEnergy,
			"exact_energy": state.ExactEnergy,
		},
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != nil {
		response["error"] = state.Err.Error()
	}

	if state.Result != nil {
		response["result"] = map[string]interface{}{
			"theta":          state.Result.Theta,
			"energy":         state.Result.Energy,
			"iterations":     state.Result.Iterations,
			"converged":      state.Result.Converged,
			"error_vs_exact": state.Result.Energy - state.ExactEnergy,
		}
	}

	if len(history) > 0 {
		historyData := make([]map[string]interface{}, len(history))
		for i, it := range history {
			historyData[i] = map[string]interface{}{
				"iteration": it.Iteration,
				"theta":     it.Theta,
				"energy":    it.Energy,
				"gradient":  it.Gradient,
			}
		}
		response["history"] = historyData
	}

	return response, nil
}

// cancelRun cancels a running job.
func (s *Server) cancelRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("run_id is required")
	}

	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	state, exists := s.runs[runID]
	if !exists {
		return fmt.Errorf("run not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel run with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("VQE run cancelled", map[string]interface{}{
		"run_id": runID,
	})
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleGroundState handles POST /api/v1/groundstate.
func (s *Server) handleGroundState(w http.ResponseWriter, r *http.Request) {
	var params startParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.startRun(params)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		http.Error(w, "Missing run ID", http.StatusBadRequest)
		return
	}

	result, err := s.runStatus(runID)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles DELETE /api/v1/run/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		http.Error(w, "Missing run ID", http.StatusBadRequest)
		return
	}

	err := s.cancelRun(runID)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}

// Close cancels all outstanding runs.
func (s *Server) Close() error {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	for _, run := range s.runs {
		if run.CancelFunc != nil {
			run.CancelFunc()
		}
	}
	return nil
}
