// Package quantum implements an exact statevector simulator for the small
// qubit registers used by the VQE solver: basis-state preparation, the
// parametrized double-excitation gate, and expectation values of Pauli-sum
// Hamiltonians. All operations are deterministic; there is no shot sampling.
package quantum

import (
	"fmt"
	"math"
	"math/cmplx"
)

// StateVector holds the 2^n complex amplitudes of an n-qubit register.
// Qubit i corresponds to bit i of the basis index, so basis state
// |q0 q1 ... q(n-1)> has index q0 + 2*q1 + 4*q2 + ...
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

// NewStateVector creates an n-qubit register initialized to |00...0>.
func NewStateVector(numQubits int) (*StateVector, error) {
	if numQubits < 1 || numQubits > 30 {
		return nil, fmt.Errorf("number of qubits must be in [1, 30], got %d", numQubits)
	}
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}, nil
}

// NewBasisState creates an n-qubit register in the computational basis
// state described by the occupation vector: qubit i is |1> iff occ[i] is 1.
// This is the statevector analogue of preparing a Hartree-Fock reference.
func NewBasisState(occ []int) (*StateVector, error) {
	s, err := NewStateVector(len(occ))
	if err != nil {
		return nil, err
	}
	if err := s.SetBasisState(occ); err != nil {
		return nil, err
	}
	return s, nil
}

// SetBasisState resets the register to the basis state described by the
// occupation vector. The vector length must equal the qubit count and every
// entry must be 0 or 1.
func (s *StateVector) SetBasisState(occ []int) error {
	if len(occ) != s.NumQubits {
		return fmt.Errorf("occupation vector has length %d but register has %d qubits", len(occ), s.NumQubits)
	}
	index := 0
	for i, b := range occ {
		switch b {
		case 0:
		case 1:
			index |= 1 << i
		default:
			return fmt.Errorf("occupation vector entry %d is %d, want 0 or 1", i, b)
		}
	}
	for i := range s.Amplitudes {
		s.Amplitudes[i] = 0
	}
	s.Amplitudes[index] = 1
	return nil
}

// Clone returns a deep copy of the state.
func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Norm returns the 2-norm of the state. A valid quantum state has norm 1.
func (s *StateVector) Norm() float64 {
	sum := 0.0
	for _, a := range s.Amplitudes {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

// Inner returns the inner product <s|other>.
func (s *StateVector) Inner(other *StateVector) (complex128, error) {
	if s.NumQubits != other.NumQubits {
		return 0, fmt.Errorf("qubit count mismatch: %d vs %d", s.NumQubits, other.NumQubits)
	}
	var sum complex128
	for i, a := range s.Amplitudes {
		sum += cmplx.Conj(a) * other.Amplitudes[i]
	}
	return sum, nil
}
