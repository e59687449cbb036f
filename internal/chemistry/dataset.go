// Package chemistry provides the molecular problem definitions consumed by
// the VQE solver: qubit Hamiltonians in the Jordan-Wigner encoding together
// with the Hartree-Fock reference occupation for each molecule, bond length
// and basis set.
package chemistry

import (
	"fmt"
	"math"

	"github.com/copyleftdev/HARTREE/internal/quantum"
)

// ErrDatasetUnavailable reports that no precomputed data exists for the
// requested molecule, bond length and basis combination. There is no
// recovery path without external data.
type ErrDatasetUnavailable struct {
	Molecule   string
	BondLength float64
	Basis      string
}

func (e *ErrDatasetUnavailable) Error() string {
	return fmt.Sprintf("no dataset for molecule %q at bond length %g with basis %q",
		e.Molecule, e.BondLength, e.Basis)
}

// Dataset is one immutable molecular problem instance.
type Dataset struct {
	Molecule   string
	BondLength float64 // angstrom
	Basis      string

	// Hamiltonian is the qubit-space molecular Hamiltonian, including the
	// nuclear repulsion contribution in the identity coefficient.
	Hamiltonian *quantum.Hamiltonian

	// NumQubits is the number of spin orbitals after the Jordan-Wigner
	// mapping.
	NumQubits int

	// HFState marks the qubits occupied in the Hartree-Fock reference:
	// qubit i starts in |1> iff HFState[i] is 1.
	HFState []int
}

// bondLengthTol is the slack allowed when matching a requested bond length
// against a tabulated geometry.
const bondLengthTol = 1e-9

// Load returns the dataset for the requested molecule, bond length (in
// angstrom) and basis set. Dimension invariants are validated eagerly here
// so the evaluator can assume a consistent problem.
func Load(molecule string, bondLength float64, basis string) (*Dataset, error) {
	for _, ds := range registry {
		if ds.Molecule == molecule && ds.Basis == basis &&
			math.Abs(ds.BondLength-bondLength) < bondLengthTol {
			if err := ds.validate(); err != nil {
				return nil, fmt.Errorf("dataset %s/%g/%s is inconsistent: %w", molecule, bondLength, basis, err)
			}
			return ds, nil
		}
	}
	return nil, &ErrDatasetUnavailable{Molecule: molecule, BondLength: bondLength, Basis: basis}
}

func (d *Dataset) validate() error {
	if d.Hamiltonian == nil {
		return fmt.Errorf("missing Hamiltonian")
	}
	if d.Hamiltonian.NumQubits != d.NumQubits {
		return fmt.Errorf("Hamiltonian spans %d qubits, dataset declares %d", d.Hamiltonian.NumQubits, d.NumQubits)
	}
	if len(d.HFState) != d.NumQubits {
		return fmt.Errorf("Hartree-Fock state has length %d, want %d", len(d.HFState), d.NumQubits)
	}
	for i, b := range d.HFState {
		if b != 0 && b != 1 {
			return fmt.Errorf("Hartree-Fock entry %d is %d, want 0 or 1", i, b)
		}
	}
	return nil
}

// mustHamiltonian builds a Hamiltonian from (coefficient, word) pairs at
// package initialization. The embedded tables are trusted input; a malformed
// entry is a programming error.
func mustHamiltonian(numQubits int, entries []struct {
	Coeff float64
	Word  string
}) *quantum.Hamiltonian {
	terms := make([]quantum.PauliTerm, 0, len(entries))
	for _, e := range entries {
		t, err := quantum.NewPauliTerm(e.Coeff, e.Word)
		if err != nil {
			panic(err)
		}
		terms = append(terms, t)
	}
	h, err := quantum.NewHamiltonian(numQubits, terms)
	if err != nil {
		panic(err)
	}
	return h
}
