package solver

import (
	"github.com/Style3D/block/internal/kernels"
)

// rhsEpsilon is the ‖b‖ below which a system is treated as empty: the
// initial guess is already the answer and no iteration runs.
const rhsEpsilon = 1e-12

// Result reports the outcome of a constraint solve. X is always a
// usable vector: the converged solution, or the best approximation
// reached when the iteration budget ran out.
type Result struct {
	X          []float64
	Converged  bool
	Iterations int
	Residual   float64   // final relative residual ‖r‖/‖b‖
	History    []float64 // relative residual after each iteration
}

// Solver runs preconditioned conjugate gradients over a SparseSystem.
// The vectors it allocates are reused across Solve calls, so one Solver
// serves one goroutine at a time.
type Solver struct {
	d *kernels.Dispatcher

	r, z, p, ap, diag []float64
}

// New creates a Solver dispatching its vector kernels on d.
func New(d *kernels.Dispatcher) *Solver {
	return &Solver{d: d}
}

// Solve runs Jacobi-preconditioned CG on sys·x = b starting from x0
// (zeros when nil) until ‖r‖/‖b‖ < tol or maxIter iterations have run.
// Exhausting the budget is not an error; the caller gets the best
// available x with Converged set to false.
func (s *Solver) Solve(sys *SparseSystem, b, x0 []float64, tol float64, maxIter int) Result {
	n := sys.Dim()
	if len(b) != n {
		panic("solver: rhs dimension mismatch")
	}

	x := make([]float64, n)
	if x0 != nil {
		if len(x0) != n {
			panic("solver: initial guess dimension mismatch")
		}
		copy(x, x0)
	}

	normB := s.d.Norm(b)
	if normB < rhsEpsilon {
		return Result{X: x, Converged: true, Iterations: 0, Residual: 0}
	}

	s.ensure(n)
	sys.DiagonalOfA(s.diag)

	// r = b - A·x
	sys.Apply(s.d, x, s.r)
	s.d.Xpby(b, -1, s.r)

	s.precondition(s.r, s.z)
	s.d.Copy(s.p, s.z)
	rz := s.d.Dot(s.r, s.z)

	res := s.d.Norm(s.r) / normB
	history := make([]float64, 0, maxIter)

	for iter := 1; iter <= maxIter; iter++ {
		sys.Apply(s.d, s.p, s.ap)
		pAp := s.d.Dot(s.p, s.ap)
		if pAp <= 0 {
			// Search direction fell in the null space; nothing further
			// to extract from a semi-definite system.
			return Result{X: x, Converged: res < tol, Iterations: iter - 1, Residual: res, History: history}
		}

		alpha := rz / pAp
		s.d.Axpy(alpha, s.p, x)
		s.d.Axpy(-alpha, s.ap, s.r)

		res = s.d.Norm(s.r) / normB
		history = append(history, res)
		if res < tol {
			return Result{X: x, Converged: true, Iterations: iter, Residual: res, History: history}
		}

		s.precondition(s.r, s.z)
		rzNext := s.d.Dot(s.r, s.z)
		s.d.Xpby(s.z, rzNext/rz, s.p)
		rz = rzNext
	}

	return Result{X: x, Converged: false, Iterations: maxIter, Residual: res, History: history}
}

// precondition applies the Jacobi preconditioner z = M⁻¹·r with M the
// diagonal of A. Zero diagonal entries fall back to identity scaling.
func (s *Solver) precondition(r, z []float64) {
	diag := s.diag
	s.d.ParallelFor(len(r), func(_, start, end int) {
		for i := start; i < end; i++ {
			if d := diag[i]; d > 0 {
				z[i] = r[i] / d
			} else {
				z[i] = r[i]
			}
		}
	})
}

func (s *Solver) ensure(n int) {
	if len(s.r) == n {
		return
	}
	s.r = make([]float64, n)
	s.z = make([]float64, n)
	s.p = make([]float64, n)
	s.ap = make([]float64, n)
	s.diag = make([]float64, n)
}

// Solve is the package-level convenience entry using the default
// dispatcher.
func Solve(sys *SparseSystem, b, x0 []float64, tol float64, maxIter int) Result {
	return New(kernels.Default()).Solve(sys, b, x0, tol, maxIter)
}
