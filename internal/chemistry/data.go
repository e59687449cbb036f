package chemistry

// registry holds the embedded problem instances. Coefficients are in
// hartree.
var registry = []*Dataset{h2STO3G}

// h2STO3G is molecular hydrogen near its equilibrium geometry in the
// minimal STO-3G basis: four spin orbitals under the Jordan-Wigner mapping,
// fifteen Pauli terms, two electrons filling the lowest orbitals. The
// Hartree-Fock reference energy for this table is -1.117349035 Ha and the
// exact ground state lies at -1.136189454 Ha.
var h2STO3G = &Dataset{
	Molecule:   "H2",
	BondLength: 0.742,
	Basis:      "STO-3G",
	NumQubits:  4,
	HFState:    []int{1, 1, 0, 0},
	Hamiltonian: mustHamiltonian(4, []struct {
		Coeff float64
		Word  string
	}{
		{-0.04207897647782277, "IIII"},
		{0.17771287465139946, "ZIII"},
		{0.1777128746513994, "IZII"},
		{-0.24274280513140462, "IIZI"},
		{-0.24274280513140462, "IIIZ"},
		{0.17059738328801055, "ZZII"},
		{0.12293305056183798, "ZIZI"},
		{0.1676831945771896, "ZIIZ"},
		{0.1676831945771896, "IZZI"},
		{0.12293305056183798, "IZIZ"},
		{0.17627640804319591, "IIZZ"},
		{-0.04475014401535161, "YYXX"},
		{0.04475014401535161, "YXXY"},
		{0.04475014401535161, "XYYX"},
		{-0.04475014401535161, "XXYY"},
	}),
}
