package vqe

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
)

// Solver defines the interface for variational ground-state solvers.
type Solver interface {
	// Solve runs the optimization to completion or until the context is
	// cancelled.
	Solve(ctx context.Context) (*Result, error)

	// GetHistory returns the per-iteration trajectory recorded so far.
	GetHistory() []Iteration

	// Stop gracefully stops a running solve.
	Stop()
}

// SolverConfig contains configuration for a gradient-descent solve.
type SolverConfig struct {
	// Evaluator computes the ansatz energy.
	Evaluator *Evaluator

	// Gradient computes dE/dtheta. Defaults to the parameter-shift rule.
	Gradient Gradient

	// ReferenceState is the occupation bit vector prepared before the
	// excitation gate, fixed for the whole run.
	ReferenceState []int

	// InitialTheta is the starting rotation angle.
	InitialTheta float64

	// LearningRate of the SGD rule. Defaults to 0.4.
	LearningRate float64

	// Momentum of the SGD rule. Zero gives plain gradient descent.
	Momentum float64

	// MaxIterations bounds the descent. Defaults to 100.
	MaxIterations int

	// ConvTol is the energy-difference convergence tolerance. Defaults to
	// 1e-6.
	ConvTol float64

	// EarlyStop stops the loop once successive energies differ by less
	// than ConvTol. When false the full iteration budget always runs, but
	// the result still reports whether the tolerance was met.
	EarlyStop bool
}

// Iteration is one recorded step of the descent trajectory.
type Iteration struct {
	Iteration int
	Theta     float64
	Energy    float64
	Gradient  float64
}

// Result contains the outcome of a solve.
type Result struct {
	// Theta is the final rotation angle.
	Theta float64
	// Energy is the ansatz energy at the final angle.
	Energy float64
	// Iterations is the number of descent steps executed.
	Iterations int
	// Converged reports whether the energy change fell below ConvTol
	// within the iteration budget.
	Converged bool
	// History is the full trajectory, one entry per iteration.
	History []Iteration
}

// GradientDescent minimizes the ansatz energy over theta with an SGD-style
// update rule. Defaults reproduce the canonical H2 run: learning rate 0.4,
// 100 iterations, plain SGD from theta = 0.
type GradientDescent struct {
	config SolverConfig
	sgd    *SGD
	logger *zap.Logger
	cancel context.CancelFunc

	historyMu sync.RWMutex
	history   []Iteration // guarded by historyMu; polled while Solve runs
}

// NewGradientDescent creates a solver for the given configuration. A nil
// logger falls back to zap's development logger, matching how the rest of
// the numeric code logs.
func NewGradientDescent(config SolverConfig, logger *zap.Logger) (*GradientDescent, error) {
	if config.Evaluator == nil {
		return nil, NewError("evaluator must not be nil").WithComponent("gradient_descent")
	}
	if len(config.ReferenceState) != config.Evaluator.NumQubits() {
		return nil, NewErrorf("reference state has length %d but register has %d qubits",
			len(config.ReferenceState), config.Evaluator.NumQubits()).WithComponent("gradient_descent")
	}
	if config.LearningRate == 0 {
		config.LearningRate = 0.4
	}
	if config.LearningRate < 0 {
		return nil, NewErrorf("learning rate must be positive, got %v", config.LearningRate).WithComponent("gradient_descent")
	}
	if config.MaxIterations < 1 {
		config.MaxIterations = 100
	}
	if config.ConvTol <= 0 {
		config.ConvTol = 1e-6
	}
	if config.Gradient == nil {
		config.Gradient = NewParameterShift(config.Evaluator)
	}

	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}

	return &GradientDescent{
		config:  config,
		sgd:     NewSGD(config.LearningRate, config.Momentum),
		history: make([]Iteration, 0, config.MaxIterations),
		logger:  logger.Named("gradient_descent"),
	}, nil
}

// Solve runs the descent. Each iteration computes the gradient at the
// current theta, applies the update rule, and records the step. Non-finite
// energies or gradients abort immediately instead of propagating through
// the remaining iterations.
func (gd *GradientDescent) Solve(ctx context.Context) (*Result, error) {
	const op = "GradientDescent.Solve"

	ctx, gd.cancel = context.WithCancel(ctx)
	defer gd.cancel()

	gd.sgd.Reset()
	gd.historyMu.Lock()
	gd.history = gd.history[:0]
	gd.historyMu.Unlock()

	theta := gd.config.InitialTheta
	ref := gd.config.ReferenceState

	gd.logger.Debug("starting descent",
		zap.Float64("initial_theta", theta),
		zap.Float64("learning_rate", gd.config.LearningRate),
		zap.Int("max_iterations", gd.config.MaxIterations),
	)

	prevEnergy := math.NaN()
	converged := false
	iterations := 0

	for n := 0; n < gd.config.MaxIterations; n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		energy, err := gd.config.Evaluator.Energy(ref, theta)
		if err != nil {
			return nil, WrapError(err, "evaluating energy").WithComponent("gradient_descent").WithOperation(op)
		}
		gradient, err := gd.config.Gradient.Gradient(ref, theta)
		if err != nil {
			return nil, WrapError(err, "computing gradient").WithComponent("gradient_descent").WithOperation(op)
		}
		if !isFinite(energy) || !isFinite(gradient) {
			return nil, NewErrorf("numeric divergence at iteration %d: energy=%v gradient=%v",
				n, energy, gradient).WithComponent("gradient_descent").WithOperation(op)
		}

		gd.historyMu.Lock()
		gd.history = append(gd.history, Iteration{
			Iteration: n,
			Theta:     theta,
			Energy:    energy,
			Gradient:  gradient,
		})
		gd.historyMu.Unlock()
		iterations = n + 1

		gd.logger.Debug("iteration",
			zap.Int("n", n),
			zap.Float64("theta", theta),
			zap.Float64("energy", energy),
			zap.Float64("gradient", gradient),
		)

		if !converged && !math.IsNaN(prevEnergy) && math.Abs(energy-prevEnergy) < gd.config.ConvTol {
			converged = true
			if gd.config.EarlyStop {
				gd.logger.Debug("early stop: energy change below tolerance",
					zap.Int("n", n),
					zap.Float64("conv_tol", gd.config.ConvTol),
				)
				break
			}
		}
		prevEnergy = energy

		theta = gd.sgd.Update(theta, gradient)
	}

	finalEnergy, err := gd.config.Evaluator.Energy(ref, theta)
	if err != nil {
		return nil, WrapError(err, "evaluating final energy").WithComponent("gradient_descent").WithOperation(op)
	}

	gd.logger.Info("descent finished",
		zap.Float64("theta", theta),
		zap.Float64("energy", finalEnergy),
		zap.Int("iterations", iterations),
		zap.Bool("converged", converged),
	)

	return &Result{
		Theta:      theta,
		Energy:     finalEnergy,
		Iterations: iterations,
		Converged:  converged,
		History:    append([]Iteration(nil), gd.history...),
	}, nil
}

// GetHistory returns a copy of the trajectory recorded so far. It is safe
// to call while Solve is running.
func (gd *GradientDescent) GetHistory() []Iteration {
	gd.historyMu.RLock()
	defer gd.historyMu.RUnlock()
	return append([]Iteration(nil), gd.history...)
}

// Stop cancels a running solve.
func (gd *GradientDescent) Stop() {
	if gd.cancel != nil {
		gd.cancel()
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
