package kernels

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestParallelForCoversRange(t *testing.T) {
	d := NewDispatcher(4)
	n := 10000
	seen := make([]int32, n)
	d.ParallelFor(n, func(_, start, end int) {
		for i := start; i < end; i++ {
			seen[i]++
		}
	})
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}

func TestParallelForEmpty(t *testing.T) {
	d := NewDispatcher(4)
	called := false
	d.ParallelFor(0, func(_, _, _ int) { called = true })
	if called {
		t.Error("fn should not run for n=0")
	}
}

func TestReduceSumMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vals := make([]float64, 50000)
	for i := range vals {
		vals[i] = rng.Float64() - 0.5
	}

	want := 0.0
	for _, v := range vals {
		want += v
	}

	d := NewDispatcher(8)
	got := d.ReduceSum(vals)
	if math.Abs(got-want) > 1e-9*float64(len(vals)) {
		t.Errorf("sum = %v, want %v", got, want)
	}
}

func TestReduceMinMax(t *testing.T) {
	d := NewDispatcher(3)
	vals := make([]float64, 5000)
	for i := range vals {
		vals[i] = float64(i)
	}
	vals[1234] = -7
	vals[4321] = 9999

	if got := d.ReduceMin(vals); got != -7 {
		t.Errorf("min = %v, want -7", got)
	}
	if got := d.ReduceMax(vals); got != 9999 {
		t.Errorf("max = %v, want 9999", got)
	}
}

func TestReduceBounds(t *testing.T) {
	d := NewDispatcher(4)
	n := 4096
	lowers := make([]mgl64.Vec3, n)
	uppers := make([]mgl64.Vec3, n)
	rng := rand.New(rand.NewSource(2))
	for i := range lowers {
		c := mgl64.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
		lowers[i] = c.Sub(mgl64.Vec3{0.01, 0.01, 0.01})
		uppers[i] = c.Add(mgl64.Vec3{0.01, 0.01, 0.01})
	}

	lo, hi := d.ReduceBounds(lowers, uppers)
	for c := 0; c < 3; c++ {
		if lo[c] < -0.02 || lo[c] > 0.2 {
			t.Errorf("lower[%d] = %v out of expected range", c, lo[c])
		}
		if hi[c] > 1.02 || hi[c] < 0.8 {
			t.Errorf("upper[%d] = %v out of expected range", c, hi[c])
		}
	}
	for c := 0; c < 3; c++ {
		if lo[c] > hi[c] {
			t.Errorf("lower > upper on axis %d", c)
		}
	}
}

func TestDotAxpy(t *testing.T) {
	d := NewDispatcher(4)
	n := 20000
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i % 7)
		y[i] = float64(i % 3)
	}

	wantDot := 0.0
	for i := range x {
		wantDot += x[i] * y[i]
	}
	if got := d.Dot(x, y); math.Abs(got-wantDot) > 1e-6 {
		t.Errorf("dot = %v, want %v", got, wantDot)
	}

	d.Axpy(2.0, x, y)
	for i := 0; i < n; i += 997 {
		want := float64(i%3) + 2.0*float64(i%7)
		if y[i] != want {
			t.Fatalf("axpy y[%d] = %v, want %v", i, y[i], want)
		}
	}
}

func TestXpby(t *testing.T) {
	d := NewDispatcher(2)
	x := []float64{1, 2, 3}
	y := []float64{10, 20, 30}
	d.Xpby(x, 0.5, y)
	want := []float64{6, 12, 18}
	for i := range y {
		if y[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want[i])
		}
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	// Partial sums are combined in worker order, so repeated runs on the
	// same input give bit-identical results.
	d := NewDispatcher(6)
	vals := make([]float64, 30000)
	rng := rand.New(rand.NewSource(3))
	for i := range vals {
		vals[i] = rng.NormFloat64()
	}

	first := d.ReduceSum(vals)
	for run := 0; run < 10; run++ {
		if got := d.ReduceSum(vals); got != first {
			t.Fatalf("run %d: sum %v != first %v", run, got, first)
		}
	}
}
