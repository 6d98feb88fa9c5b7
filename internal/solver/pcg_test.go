package solver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Style3D/block/internal/kernels"
	"github.com/Style3D/block/internal/solver"
)

// couple2x2 builds the system A = [[2, 1], [1, 2]] as a unit diagonal
// plus a single constraint row J = [1, 1].
func couple2x2() *solver.SparseSystem {
	sys := solver.NewSparseSystem([]float64{1, 1})
	sys.AddRow([]int32{0, 1}, []float64{1, 1})
	return sys
}

// pathSystem builds A = 2I + L with L the Laplacian of a path graph of
// n vertices, a well-conditioned SPD system of arbitrary size.
func pathSystem(n int) *solver.SparseSystem {
	diag := make([]float64, n)
	for i := range diag {
		diag[i] = 2
	}
	sys := solver.NewSparseSystem(diag)
	for i := 0; i < n-1; i++ {
		sys.AddRow([]int32{int32(i), int32(i + 1)}, []float64{1, -1})
	}
	return sys
}

var _ = Describe("SparseSystem", func() {
	It("applies A = D + JᵀJ matrix-free", func() {
		sys := couple2x2()
		y := make([]float64, 2)
		sys.Apply(kernels.Default(), []float64{1, 0}, y)
		Expect(y[0]).To(BeNumerically("~", 2, 1e-15))
		Expect(y[1]).To(BeNumerically("~", 1, 1e-15))
	})

	It("exposes the diagonal of A for preconditioning", func() {
		sys := couple2x2()
		diag := make([]float64, 2)
		sys.DiagonalOfA(diag)
		Expect(diag).To(Equal([]float64{2, 2}))
	})
})

var _ = Describe("PCG", func() {
	It("solves the 1x1 system [2]x = [4] in a single iteration", func() {
		sys := solver.NewSparseSystem([]float64{2})
		res := solver.Solve(sys, []float64{4}, nil, 1e-10, 50)

		Expect(res.Converged).To(BeTrue())
		Expect(res.Iterations).To(Equal(1))
		Expect(res.X[0]).To(BeNumerically("~", 2, 1e-10))
	})

	It("returns the initial guess untouched when b is zero", func() {
		sys := solver.NewSparseSystem([]float64{3, 5})
		x0 := []float64{7, -4}
		res := solver.Solve(sys, []float64{0, 0}, x0, 1e-10, 50)

		Expect(res.Converged).To(BeTrue())
		Expect(res.Iterations).To(BeZero())
		Expect(res.X).To(Equal(x0))
		Expect(&res.X[0]).NotTo(BeIdenticalTo(&x0[0]))
	})

	It("recovers the closed-form solution of a coupled system", func() {
		// A = [[2, 1], [1, 2]], b = (1, 0) => x = (2/3, -1/3).
		res := solver.Solve(couple2x2(), []float64{1, 0}, nil, 1e-12, 50)

		Expect(res.Converged).To(BeTrue())
		Expect(res.X[0]).To(BeNumerically("~", 2.0/3.0, 1e-10))
		Expect(res.X[1]).To(BeNumerically("~", -1.0/3.0, 1e-10))
	})

	It("reports non-convergence with a best-effort solution at the iteration cap", func() {
		res := solver.Solve(couple2x2(), []float64{1, 0}, nil, 1e-14, 1)

		Expect(res.Converged).To(BeFalse())
		Expect(res.Iterations).To(Equal(1))
		Expect(res.X).To(HaveLen(2))
		Expect(res.Residual).To(BeNumerically(">", 0))
		Expect(res.History).To(HaveLen(1))
	})

	It("converges on a large path-Laplacian system to a known solution", func() {
		const n = 200
		sys := pathSystem(n)

		want := make([]float64, n)
		for i := range want {
			want[i] = float64(i%7)*0.25 - 0.5
		}
		b := make([]float64, n)
		sys.Apply(kernels.Default(), want, b)

		res := solver.Solve(sys, b, nil, 1e-10, 500)
		Expect(res.Converged).To(BeTrue())
		for i := range want {
			Expect(res.X[i]).To(BeNumerically("~", want[i], 1e-7))
		}
	})

	It("records the relative residual after every iteration", func() {
		res := solver.Solve(pathSystem(64), onesVec(64), nil, 1e-10, 200)

		Expect(res.Converged).To(BeTrue())
		Expect(res.History).To(HaveLen(res.Iterations))
		Expect(res.History[len(res.History)-1]).To(Equal(res.Residual))
	})

	It("produces bitwise-identical results run to run", func() {
		const n = 150
		sys := pathSystem(n)
		b := onesVec(n)

		s := solver.New(kernels.NewDispatcher(4))
		first := s.Solve(sys, b, nil, 1e-10, 300)
		for run := 0; run < 5; run++ {
			again := s.Solve(sys, b, nil, 1e-10, 300)
			Expect(again.Iterations).To(Equal(first.Iterations))
			Expect(again.X).To(Equal(first.X))
			Expect(again.History).To(Equal(first.History))
		}
	})
})

func onesVec(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
