package kernels

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Reductions combine per-worker partial results in worker order, so the
// outcome is identical across runs for a fixed worker count.

// ReduceSum returns the sum of vals.
func (d *Dispatcher) ReduceSum(vals []float64) float64 {
	partial := make([]float64, d.workers)
	d.ParallelFor(len(vals), func(worker, start, end int) {
		s := 0.0
		for i := start; i < end; i++ {
			s += vals[i]
		}
		partial[worker] = s
	})
	total := 0.0
	for _, s := range partial {
		total += s
	}
	return total
}

// ReduceMin returns the minimum of vals, or +Inf for an empty slice.
func (d *Dispatcher) ReduceMin(vals []float64) float64 {
	partial := make([]float64, d.workers)
	for i := range partial {
		partial[i] = math.Inf(1)
	}
	d.ParallelFor(len(vals), func(worker, start, end int) {
		m := math.Inf(1)
		for i := start; i < end; i++ {
			m = math.Min(m, vals[i])
		}
		partial[worker] = m
	})
	m := math.Inf(1)
	for _, v := range partial {
		m = math.Min(m, v)
	}
	return m
}

// ReduceMax returns the maximum of vals, or -Inf for an empty slice.
func (d *Dispatcher) ReduceMax(vals []float64) float64 {
	partial := make([]float64, d.workers)
	for i := range partial {
		partial[i] = math.Inf(-1)
	}
	d.ParallelFor(len(vals), func(worker, start, end int) {
		m := math.Inf(-1)
		for i := start; i < end; i++ {
			m = math.Max(m, vals[i])
		}
		partial[worker] = m
	})
	m := math.Inf(-1)
	for _, v := range partial {
		m = math.Max(m, v)
	}
	return m
}

// ReduceBounds returns the component-wise min of lowers and max of uppers,
// the scene-level bounding volume of a set of per-element bounds.
func (d *Dispatcher) ReduceBounds(lowers, uppers []mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	inf := math.Inf(1)
	lo := make([]mgl64.Vec3, d.workers)
	hi := make([]mgl64.Vec3, d.workers)
	for i := range lo {
		lo[i] = mgl64.Vec3{inf, inf, inf}
		hi[i] = mgl64.Vec3{-inf, -inf, -inf}
	}
	d.ParallelFor(len(lowers), func(worker, start, end int) {
		l := mgl64.Vec3{inf, inf, inf}
		u := mgl64.Vec3{-inf, -inf, -inf}
		for i := start; i < end; i++ {
			for c := 0; c < 3; c++ {
				l[c] = math.Min(l[c], lowers[i][c])
				u[c] = math.Max(u[c], uppers[i][c])
			}
		}
		lo[worker] = l
		hi[worker] = u
	})
	l := mgl64.Vec3{inf, inf, inf}
	u := mgl64.Vec3{-inf, -inf, -inf}
	for w := 0; w < d.workers; w++ {
		for c := 0; c < 3; c++ {
			l[c] = math.Min(l[c], lo[w][c])
			u[c] = math.Max(u[c], hi[w][c])
		}
	}
	return l, u
}
