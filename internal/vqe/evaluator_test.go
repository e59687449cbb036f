package vqe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/HARTREE/internal/chemistry"
	"github.com/copyleftdev/HARTREE/internal/quantum"
)

var testWires = quantum.DoubleExcitationWires{0, 1, 2, 3}

func h2Evaluator(t *testing.T) (*Evaluator, *chemistry.Dataset) {
	t.Helper()
	ds, err := chemistry.Load("H2", 0.742, "STO-3G")
	require.NoError(t, err)
	eval, err := NewEvaluator(ds.Hamiltonian, testWires)
	require.NoError(t, err)
	return eval, ds
}

func TestNewEvaluatorValidation(t *testing.T) {
	ds, err := chemistry.Load("H2", 0.742, "STO-3G")
	require.NoError(t, err)

	_, err = NewEvaluator(nil, testWires)
	assert.Error(t, err)

	_, err = NewEvaluator(ds.Hamiltonian, quantum.DoubleExcitationWires{0, 1, 2, 4})
	assert.Error(t, err)

	_, err = NewEvaluator(ds.Hamiltonian, quantum.DoubleExcitationWires{0, 0, 2, 3})
	assert.Error(t, err)
}

func TestEnergyAtHartreeFock(t *testing.T) {
	eval, ds := h2Evaluator(t)

	// At theta = 0 the ansatz is the bare Hartree-Fock determinant.
	energy, err := eval.Energy(ds.HFState, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1.1173490349902797, energy, 1e-9)
}

func TestEnergyAtFullRotation(t *testing.T) {
	eval, ds := h2Evaluator(t)

	// At theta = pi the reference is fully rotated into the doubly excited
	// determinant.
	energy, err := eval.Energy(ds.HFState, math.Pi)
	require.NoError(t, err)
	assert.InDelta(t, 0.5644736841409365, energy, 1e-9)
}

func TestEnergyPeriodicity(t *testing.T) {
	eval, ds := h2Evaluator(t)

	for _, theta := range []float64{-0.9, 0.21, 1.7} {
		e1, err := eval.Energy(ds.HFState, theta)
		require.NoError(t, err)
		e2, err := eval.Energy(ds.HFState, theta+2*math.Pi)
		require.NoError(t, err)
		assert.InDelta(t, e1, e2, 1e-10, "theta=%v", theta)
	}
}

func TestEnergyDeterminism(t *testing.T) {
	eval, ds := h2Evaluator(t)

	first, err := eval.Energy(ds.HFState, 0.37)
	require.NoError(t, err)
	second, err := eval.Energy(ds.HFState, 0.37)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnergyReferenceMismatch(t *testing.T) {
	eval, _ := h2Evaluator(t)

	_, err := eval.Energy([]int{1, 1, 0}, 0.1)
	assert.Error(t, err)

	_, err = eval.Energy([]int{1, 2, 0, 0}, 0.1)
	assert.Error(t, err)
}
