package kernels

import "math"

// Element-wise vector kernels shared by the geometry tests and the solver.
// All operate in place on caller-provided slices; none allocate.

// Dot returns the inner product of a and b. Panics on length mismatch,
// which indicates a caller bug rather than bad input data.
func (d *Dispatcher) Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("kernels: dot length mismatch")
	}
	partial := make([]float64, d.workers)
	d.ParallelFor(len(a), func(worker, start, end int) {
		s := 0.0
		for i := start; i < end; i++ {
			s += a[i] * b[i]
		}
		partial[worker] = s
	})
	total := 0.0
	for _, s := range partial {
		total += s
	}
	return total
}

// Norm returns the Euclidean norm of v.
func (d *Dispatcher) Norm(v []float64) float64 {
	return math.Sqrt(d.Dot(v, v))
}

// Axpy computes y += alpha*x.
func (d *Dispatcher) Axpy(alpha float64, x, y []float64) {
	if len(x) != len(y) {
		panic("kernels: axpy length mismatch")
	}
	d.ParallelFor(len(x), func(_, start, end int) {
		for i := start; i < end; i++ {
			y[i] += alpha * x[i]
		}
	})
}

// Xpby computes y = x + beta*y.
func (d *Dispatcher) Xpby(x []float64, beta float64, y []float64) {
	if len(x) != len(y) {
		panic("kernels: xpby length mismatch")
	}
	d.ParallelFor(len(x), func(_, start, end int) {
		for i := start; i < end; i++ {
			y[i] = x[i] + beta*y[i]
		}
	})
}

// Mul computes out[i] = a[i] * b[i].
func (d *Dispatcher) Mul(a, b, out []float64) {
	if len(a) != len(b) || len(a) != len(out) {
		panic("kernels: mul length mismatch")
	}
	d.ParallelFor(len(a), func(_, start, end int) {
		for i := start; i < end; i++ {
			out[i] = a[i] * b[i]
		}
	})
}

// Fill sets every element of v to value.
func (d *Dispatcher) Fill(v []float64, value float64) {
	d.ParallelFor(len(v), func(_, start, end int) {
		for i := start; i < end; i++ {
			v[i] = value
		}
	})
}

// Copy copies src into dst.
func (d *Dispatcher) Copy(dst, src []float64) {
	if len(dst) != len(src) {
		panic("kernels: copy length mismatch")
	}
	d.ParallelFor(len(src), func(_, start, end int) {
		copy(dst[start:end], src[start:end])
	})
}
