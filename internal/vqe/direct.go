package vqe

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// MinimizeDirect finds the energy-minimizing theta with a derivative-free
// Nelder-Mead search. It serves as an independent cross-check of the
// gradient-descent trajectory: both minimizers must land on the same angle
// for a well-behaved single-parameter landscape.
func MinimizeDirect(eval *Evaluator, ref []int, start float64) (theta, energy float64, err error) {
	const op = "MinimizeDirect"

	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			e, err := eval.Energy(ref, x[0])
			if err != nil {
				evalErr = err
				return math.Inf(1)
			}
			return e
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 100,
		},
	}

	method := &optimize.NelderMead{
		Reflection:  1.0,
		Expansion:   2.0,
		Contraction: 0.5,
		Shrink:      0.5,
		SimplexSize: 0.1,
	}

	result, err := optimize.Minimize(problem, []float64{start}, settings, method)
	if evalErr != nil {
		return 0, 0, WrapError(evalErr, "evaluating objective").WithComponent("direct_search").WithOperation(op)
	}
	if err != nil {
		return 0, 0, WrapError(err, "Nelder-Mead minimization failed").WithComponent("direct_search").WithOperation(op)
	}
	return result.X[0], result.F, nil
}
