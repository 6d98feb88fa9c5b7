// Package solver provides an iterative solver for the sparse linear
// systems assembled from contact and joint constraints. The system
// matrix A = D + JᵀJ is never materialized; it is applied matrix-free
// from a diagonal term and per-constraint Jacobian row blocks, which
// keeps A symmetric positive semi-definite by construction.
package solver

import (
	"github.com/Style3D/block/internal/kernels"
)

// RowBlock is one constraint row of the Jacobian: a sparse list of
// column indices and their coefficients. Cols and Vals run in parallel.
type RowBlock struct {
	Cols []int32
	Vals []float64
}

// SparseSystem is the implicit matrix A = D + JᵀJ over a vector of
// constraint unknowns. Diag carries the per-unknown mass or
// regularization term D; Rows carries the Jacobian J.
type SparseSystem struct {
	Diag []float64
	Rows []RowBlock

	rowDot []float64   // J·x, one entry per row
	acc    [][]float64 // per-worker scatter accumulators
}

// NewSparseSystem creates a system of dim unknowns with the given
// diagonal term and no constraint rows.
func NewSparseSystem(diag []float64) *SparseSystem {
	return &SparseSystem{Diag: diag}
}

// Dim returns the number of unknowns.
func (s *SparseSystem) Dim() int { return len(s.Diag) }

// AddRow appends one constraint row. Panics on malformed input, which
// indicates an assembly bug rather than bad scene data.
func (s *SparseSystem) AddRow(cols []int32, vals []float64) {
	if len(cols) != len(vals) {
		panic("solver: row cols/vals length mismatch")
	}
	for _, c := range cols {
		if c < 0 || int(c) >= len(s.Diag) {
			panic("solver: row column out of range")
		}
	}
	s.Rows = append(s.Rows, RowBlock{Cols: cols, Vals: vals})
}

// Apply computes y = A·x as two parallel passes: a gather producing the
// per-row dot products J·x, then a scatter of Jᵀ(J·x) accumulated into
// per-worker buffers that are combined in a fixed worker order, so the
// floating-point result is identical run to run.
func (s *SparseSystem) Apply(d *kernels.Dispatcher, x, y []float64) {
	n := s.Dim()
	if len(x) != n || len(y) != n {
		panic("solver: apply dimension mismatch")
	}

	d.Mul(s.Diag, x, y)
	if len(s.Rows) == 0 {
		return
	}

	s.ensureScratch(d.Workers(), n)

	d.ParallelFor(len(s.Rows), func(_, start, end int) {
		for i := start; i < end; i++ {
			row := &s.Rows[i]
			dot := 0.0
			for j, c := range row.Cols {
				dot += row.Vals[j] * x[c]
			}
			s.rowDot[i] = dot
		}
	})

	for _, a := range s.acc {
		d.Fill(a, 0)
	}
	d.ParallelFor(len(s.Rows), func(worker, start, end int) {
		a := s.acc[worker]
		for i := start; i < end; i++ {
			row := &s.Rows[i]
			dot := s.rowDot[i]
			for j, c := range row.Cols {
				a[c] += row.Vals[j] * dot
			}
		}
	})

	// Per-element combine; the inner worker loop fixes the summation
	// order regardless of how the elements are chunked.
	d.ParallelFor(n, func(_, start, end int) {
		for i := start; i < end; i++ {
			sum := y[i]
			for _, a := range s.acc {
				sum += a[i]
			}
			y[i] = sum
		}
	})
}

// DiagonalOfA writes the diagonal of A = D + JᵀJ into dst, which is the
// basis of the Jacobi preconditioner.
func (s *SparseSystem) DiagonalOfA(dst []float64) {
	copy(dst, s.Diag)
	for i := range s.Rows {
		row := &s.Rows[i]
		for j, c := range row.Cols {
			dst[c] += row.Vals[j] * row.Vals[j]
		}
	}
}

func (s *SparseSystem) ensureScratch(workers, n int) {
	if cap(s.rowDot) < len(s.Rows) {
		s.rowDot = make([]float64, len(s.Rows))
	}
	s.rowDot = s.rowDot[:len(s.Rows)]

	if len(s.acc) != workers || (len(s.acc) > 0 && len(s.acc[0]) != n) {
		s.acc = make([][]float64, workers)
		for w := range s.acc {
			s.acc[w] = make([]float64, n)
		}
	}
}
