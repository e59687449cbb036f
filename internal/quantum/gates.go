package quantum

import (
	"fmt"
	"math"
)

// DoubleExcitationWires identifies the four distinct qubits a double
// excitation acts on: wires [0] and [1] are the occupied pair, wires [2]
// and [3] the virtual pair.
type DoubleExcitationWires [4]int

// Validate checks that all four wires are distinct and fit an n-qubit
// register.
func (w DoubleExcitationWires) Validate(numQubits int) error {
	seen := 0
	for _, q := range w {
		if q < 0 || q >= numQubits {
			return fmt.Errorf("wire %d out of range for %d-qubit register", q, numQubits)
		}
		if seen&(1<<q) != 0 {
			return fmt.Errorf("duplicate wire %d in double excitation", q)
		}
		seen |= 1 << q
	}
	return nil
}

// masks returns the occupied-pair mask, the virtual-pair mask and their
// union.
func (w DoubleExcitationWires) masks() (occ, virt, all int) {
	occ = 1<<w[0] | 1<<w[1]
	virt = 1<<w[2] | 1<<w[3]
	return occ, virt, occ | virt
}

// ApplyDoubleExcitation applies the double-excitation rotation
// exp(-i theta/2 G) in place, where G is the antisymmetrized two-electron
// excitation generator on the given wires. The gate rotates within every
// two-dimensional subspace spanned by |..1100..> and |..0011..> on the four
// wires and leaves all other basis states untouched:
//
//	|1100> -> cos(theta/2)|1100> - sin(theta/2)|0011>
//	|0011> -> cos(theta/2)|0011> + sin(theta/2)|1100>
func (s *StateVector) ApplyDoubleExcitation(theta float64, wires DoubleExcitationWires) error {
	if err := wires.Validate(s.NumQubits); err != nil {
		return err
	}
	occ, _, all := wires.masks()
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	for i := range s.Amplitudes {
		if i&all != occ {
			continue
		}
		j := i ^ all
		a, b := s.Amplitudes[i], s.Amplitudes[j]
		s.Amplitudes[i] = c*a + sn*b
		s.Amplitudes[j] = -sn*a + c*b
	}
	return nil
}

// ApplyDoubleExcitationDeriv replaces the state |phi> with
// d/dtheta [U(theta)|phi>], the derivative of the double-excitation gate
// applied to the current amplitudes. Amplitudes outside the excitation
// subspaces are annihilated by the derivative.
func (s *StateVector) ApplyDoubleExcitationDeriv(theta float64, wires DoubleExcitationWires) error {
	if err := wires.Validate(s.NumQubits); err != nil {
		return err
	}
	occ, _, all := wires.masks()
	dc := complex(-math.Sin(theta/2)/2, 0)
	ds := complex(math.Cos(theta/2)/2, 0)
	touched := make([]bool, len(s.Amplitudes))
	for i := range s.Amplitudes {
		if i&all != occ {
			continue
		}
		j := i ^ all
		a, b := s.Amplitudes[i], s.Amplitudes[j]
		s.Amplitudes[i] = dc*a + ds*b
		s.Amplitudes[j] = -ds*a + dc*b
		touched[i] = true
		touched[j] = true
	}
	for i := range s.Amplitudes {
		if !touched[i] {
			s.Amplitudes[i] = 0
		}
	}
	return nil
}
