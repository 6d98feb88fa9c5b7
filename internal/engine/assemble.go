package engine

import (
	"github.com/Style3D/block/internal/contact"
	"github.com/Style3D/block/internal/solver"
)

// AssembleContacts builds the constraint system for a set of contacts
// over n primitives with three positional unknowns each. Every contact
// contributes one Jacobian row coupling its two bodies along the contact
// normal, and pushes its penetration depth into the right-hand side:
//
//	(M + JᵀJ)·dx = Jᵀ·d
//
// the normal equations of the depth-weighted projection that separates
// the bodies while moving them as little as possible. M is the identity
// here; per-body mass weighting belongs to the caller's dynamics layer.
// The resulting matrix is symmetric positive definite, so the solver's
// convergence guarantees hold.
func AssembleContacts(n int, contacts []contact.Contact) (*solver.SparseSystem, []float64) {
	dim := 3 * n
	diag := make([]float64, dim)
	for i := range diag {
		diag[i] = 1
	}
	sys := solver.NewSparseSystem(diag)
	rhs := make([]float64, dim)

	cols := make([]int32, 6*len(contacts))
	vals := make([]float64, 6*len(contacts))

	for ci := range contacts {
		c := &contacts[ci]
		a, b := 3*c.IndexA, 3*c.IndexB

		rowCols := cols[6*ci : 6*ci+6]
		rowVals := vals[6*ci : 6*ci+6]
		for k := 0; k < 3; k++ {
			rowCols[k] = a + int32(k)
			rowCols[3+k] = b + int32(k)
			rowVals[k] = c.Normal[k]
			rowVals[3+k] = -c.Normal[k]

			rhs[a+int32(k)] += c.Normal[k] * c.Depth
			rhs[b+int32(k)] -= c.Normal[k] * c.Depth
		}
		sys.AddRow(rowCols, rowVals)
	}

	return sys, rhs
}
