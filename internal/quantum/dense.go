package quantum

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// realTol bounds the imaginary residue tolerated when a Pauli-sum operator
// is materialized as a real matrix. Molecular qubit Hamiltonians have real
// coefficients and an even number of Y factors per term, so anything above
// numerical noise signals a malformed operator.
const realTol = 1e-10

// Dense materializes the Hamiltonian as a dense real symmetric
// 2^n x 2^n matrix by applying the sparse Pauli kernels to every basis
// vector. It fails if the operator is not real symmetric to within realTol.
func (h *Hamiltonian) Dense() (*mat.SymDense, error) {
	dim := 1 << h.NumQubits
	cols := mat.NewDense(dim, dim, nil)
	src := make([]complex128, dim)
	dst := make([]complex128, dim)
	for j := 0; j < dim; j++ {
		for i := range src {
			src[i] = 0
		}
		src[j] = 1
		if err := h.ApplyTo(dst, src); err != nil {
			return nil, err
		}
		for i := 0; i < dim; i++ {
			if math.Abs(imag(dst[i])) > realTol {
				return nil, fmt.Errorf("operator is not real: |Im H[%d,%d]| = %g", i, j, math.Abs(imag(dst[i])))
			}
			cols.Set(i, j, real(dst[i]))
		}
	}
	sym := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			a, b := cols.At(i, j), cols.At(j, i)
			if math.Abs(a-b) > realTol {
				return nil, fmt.Errorf("operator is not symmetric at (%d,%d): %g vs %g", i, j, a, b)
			}
			sym.SetSym(i, j, a)
		}
	}
	return sym, nil
}

// GroundStateEnergy returns the exact lowest eigenvalue of the Hamiltonian
// by dense diagonalization. For the molecular problems handled here the
// matrix is 16x16, so this is the full-configuration-interaction reference
// the variational result is measured against.
func (h *Hamiltonian) GroundStateEnergy() (float64, error) {
	sym, err := h.Dense()
	if err != nil {
		return 0, err
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return 0, fmt.Errorf("eigendecomposition failed for %d-qubit Hamiltonian", h.NumQubits)
	}
	values := eig.Values(nil)
	sort.Float64s(values)
	return values[0], nil
}
