package quantum

import (
	"fmt"
	"math/bits"
	"math/cmplx"
	"strings"
)

// PauliTerm is one weighted Pauli-string operator. Word is a fixed-length
// string over {I, X, Y, Z} with character i acting on qubit i, e.g. "ZZII".
type PauliTerm struct {
	Coeff float64
	Word  string

	// Bit masks precomputed from Word: flip collects X and Y positions
	// (they toggle the basis index), phaseMask collects Y and Z positions
	// (they contribute a sign depending on the bit value), numY counts the
	// Y factors (they contribute a global power of i).
	flip      uint
	phaseMask uint
	numY      int
}

// NewPauliTerm parses and validates a weighted Pauli word.
func NewPauliTerm(coeff float64, word string) (PauliTerm, error) {
	t := PauliTerm{Coeff: coeff, Word: word}
	for i, ch := range word {
		switch ch {
		case 'I':
		case 'X':
			t.flip |= 1 << i
		case 'Y':
			t.flip |= 1 << i
			t.phaseMask |= 1 << i
			t.numY++
		case 'Z':
			t.phaseMask |= 1 << i
		default:
			return PauliTerm{}, fmt.Errorf("invalid Pauli letter %q at position %d in %q", ch, i, word)
		}
	}
	return t, nil
}

// iPower returns i^k for k >= 0.
func iPower(k int) complex128 {
	switch k % 4 {
	case 0:
		return 1
	case 1:
		return 1i
	case 2:
		return -1
	default:
		return -1i
	}
}

// apply accumulates coeff * P|src> into dst.
func (t PauliTerm) apply(dst, src []complex128) {
	global := complex(t.Coeff, 0) * iPower(t.numY)
	for b := range src {
		if src[b] == 0 {
			continue
		}
		phase := global
		if bits.OnesCount(uint(b)&t.phaseMask)&1 == 1 {
			phase = -phase
		}
		dst[uint(b)^t.flip] += phase * src[b]
	}
}

// Hamiltonian is an immutable weighted sum of Pauli-string operators over a
// fixed number of qubits.
type Hamiltonian struct {
	NumQubits int
	Terms     []PauliTerm
}

// NewHamiltonian validates that every term spans exactly numQubits qubits.
func NewHamiltonian(numQubits int, terms []PauliTerm) (*Hamiltonian, error) {
	if numQubits < 1 {
		return nil, fmt.Errorf("number of qubits must be positive, got %d", numQubits)
	}
	for _, t := range terms {
		if len(t.Word) != numQubits {
			return nil, fmt.Errorf("Pauli word %q has length %d, want %d", t.Word, len(t.Word), numQubits)
		}
	}
	return &Hamiltonian{NumQubits: numQubits, Terms: terms}, nil
}

// ApplyTo writes H|src> into dst. Both slices must have length 2^NumQubits;
// dst is overwritten.
func (h *Hamiltonian) ApplyTo(dst, src []complex128) error {
	dim := 1 << h.NumQubits
	if len(src) != dim || len(dst) != dim {
		return fmt.Errorf("statevector length mismatch: src %d, dst %d, want %d", len(src), len(dst), dim)
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, t := range h.Terms {
		t.apply(dst, src)
	}
	return nil
}

// Expectation returns <psi|H|psi> using scratch as workspace for H|psi>.
// If scratch is nil or the wrong size a fresh buffer is allocated.
func (h *Hamiltonian) Expectation(psi *StateVector, scratch []complex128) (float64, error) {
	if psi.NumQubits != h.NumQubits {
		return 0, fmt.Errorf("state has %d qubits but Hamiltonian acts on %d", psi.NumQubits, h.NumQubits)
	}
	dim := 1 << h.NumQubits
	if len(scratch) != dim {
		scratch = make([]complex128, dim)
	}
	if err := h.ApplyTo(scratch, psi.Amplitudes); err != nil {
		return 0, err
	}
	var e complex128
	for i, a := range psi.Amplitudes {
		e += cmplx.Conj(a) * scratch[i]
	}
	return real(e), nil
}

// String renders the operator in the conventional coefficient * word form.
func (h *Hamiltonian) String() string {
	var sb strings.Builder
	for i, t := range h.Terms {
		if i > 0 {
			sb.WriteString(" + ")
		}
		fmt.Fprintf(&sb, "(%g) [%s]", t.Coeff, t.Word)
	}
	return sb.String()
}
