package broadphase

import (
	"math/rand"
	"testing"

	"github.com/Style3D/block/internal/geom"
	"github.com/Style3D/block/internal/kernels"
	"github.com/go-gl/mathgl/mgl64"
)

func randomBounds(n int, seed int64, radius float64) []geom.Aabb {
	rng := rand.New(rand.NewSource(seed))
	bounds := make([]geom.Aabb, n)
	for i := range bounds {
		c := mgl64.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
		r := mgl64.Vec3{radius, radius, radius}
		bounds[i] = geom.NewAabb(c.Sub(r), c.Add(r))
	}
	return bounds
}

func bruteForcePairs(bounds []geom.Aabb) map[Pair]bool {
	out := make(map[Pair]bool)
	for i := 0; i < len(bounds); i++ {
		for j := i + 1; j < len(bounds); j++ {
			if bounds[i].Overlaps(bounds[j]) {
				out[Pair{A: int32(i), B: int32(j)}] = true
			}
		}
	}
	return out
}

func queryAll(t *testing.T, idx Index, bounds []geom.Aabb) []Pair {
	t.Helper()
	idx.Build(bounds)
	pairs, ok := idx.QueryPairs(bounds, make([]Pair, 0, len(bounds)*64+64))
	if !ok {
		t.Fatal("pair buffer overflow")
	}
	return pairs
}

func checkExactMatch(t *testing.T, pairs []Pair, bounds []geom.Aabb) {
	t.Helper()
	want := bruteForcePairs(bounds)
	got := make(map[Pair]bool, len(pairs))
	for _, p := range pairs {
		if p.A >= p.B {
			t.Fatalf("non-canonical pair %+v", p)
		}
		if got[p] {
			t.Fatalf("duplicate pair %+v", p)
		}
		got[p] = true
		if !bounds[p.A].Overlaps(bounds[p.B]) {
			t.Fatalf("pair %+v has non-overlapping boxes", p)
		}
	}
	for p := range want {
		if !got[p] {
			t.Fatalf("missed overlapping pair %+v", p)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(got), len(want))
	}
}

func TestBvhPairsMatchBruteForce(t *testing.T) {
	d := kernels.NewDispatcher(4)
	for _, n := range []int{2, 3, 17, 200, 1500} {
		bounds := randomBounds(n, int64(n), 0.05)
		pairs := queryAll(t, NewBvh(d), bounds)
		checkExactMatch(t, pairs, bounds)
	}
}

func TestGridPairsMatchBruteForce(t *testing.T) {
	d := kernels.NewDispatcher(4)
	for _, n := range []int{2, 3, 17, 200, 1500} {
		bounds := randomBounds(n, int64(n)+100, 0.05)
		pairs := queryAll(t, NewGrid(d, 0, 1024), bounds)
		checkExactMatch(t, pairs, bounds)
	}
}

func TestBvhDegenerateInputs(t *testing.T) {
	d := kernels.NewDispatcher(2)
	bvh := NewBvh(d)

	pairs := queryAll(t, bvh, nil)
	if len(pairs) != 0 {
		t.Errorf("empty scene produced %d pairs", len(pairs))
	}

	one := randomBounds(1, 7, 0.1)
	pairs = queryAll(t, bvh, one)
	if len(pairs) != 0 {
		t.Errorf("single primitive produced %d pairs", len(pairs))
	}
}

func TestGridDegenerateInputs(t *testing.T) {
	d := kernels.NewDispatcher(2)
	g := NewGrid(d, 0.5, 64)

	if pairs := queryAll(t, g, nil); len(pairs) != 0 {
		t.Errorf("empty scene produced %d pairs", len(pairs))
	}
	if pairs := queryAll(t, g, randomBounds(1, 8, 0.1)); len(pairs) != 0 {
		t.Errorf("single primitive produced %d pairs", len(pairs))
	}
}

func TestBvhDeterministicOutput(t *testing.T) {
	bounds := randomBounds(800, 42, 0.04)

	var first []Pair
	for run := 0; run < 5; run++ {
		bvh := NewBvh(kernels.NewDispatcher(8))
		pairs := queryAll(t, bvh, bounds)
		if run == 0 {
			first = append([]Pair(nil), pairs...)
			continue
		}
		if len(pairs) != len(first) {
			t.Fatalf("run %d: %d pairs, first run had %d", run, len(pairs), len(first))
		}
		for i := range pairs {
			if pairs[i] != first[i] {
				t.Fatalf("run %d: pair %d = %+v, first run had %+v", run, i, pairs[i], first[i])
			}
		}
	}
}

func TestBvhPairCapacityOverflow(t *testing.T) {
	d := kernels.NewDispatcher(2)
	bvh := NewBvh(d)

	// All boxes coincide, so every pair overlaps: 45 pairs for 10 boxes.
	bounds := make([]geom.Aabb, 10)
	for i := range bounds {
		bounds[i] = geom.NewAabb(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	}
	bvh.Build(bounds)

	if _, ok := bvh.QueryPairs(bounds, make([]Pair, 0, 10)); ok {
		t.Error("expected overflow with capacity 10")
	}
	pairs, ok := bvh.QueryPairs(bounds, make([]Pair, 0, 64))
	if !ok || len(pairs) != 45 {
		t.Errorf("got %d pairs ok=%v, want 45", len(pairs), ok)
	}
}

// TestBvhTopology ports the radix tree verification pass: every internal
// node links two children that acknowledge it as parent, and only the
// root is parentless.
func TestBvhTopology(t *testing.T) {
	d := kernels.NewDispatcher(4)
	bvh := NewBvh(d)
	bounds := randomBounds(500, 9, 0.02)
	bvh.Build(bounds)

	n := bvh.numLeaves
	numInternal := n - 1
	total := 2*n - 1

	for i := 0; i < numInternal; i++ {
		left, right := bvh.left[i], bvh.right[i]
		if left <= 0 || int(left) >= total {
			t.Fatalf("node %d has invalid left child %d", i, left)
		}
		if right <= 0 || int(right) >= total {
			t.Fatalf("node %d has invalid right child %d", i, right)
		}
		if bvh.parent[left] != int32(i) || bvh.parent[right] != int32(i) {
			t.Fatalf("node %d not acknowledged by children", i)
		}
	}
	for i := 0; i < total; i++ {
		p := bvh.parent[i]
		if i == 0 {
			if p != -1 {
				t.Fatalf("root has parent %d", p)
			}
			continue
		}
		if p < 0 || int(p) >= numInternal {
			t.Fatalf("node %d has invalid parent %d", i, p)
		}
		if bvh.left[p] != int32(i) && bvh.right[p] != int32(i) {
			t.Fatalf("node %d is not a child of its parent %d", i, p)
		}
	}
}

// TestBvhRefit mirrors the original bound-containment check: after a
// rebuild plus refit the root box must still enclose every leaf.
func TestBvhRefit(t *testing.T) {
	d := kernels.NewDispatcher(4)
	bvh := NewBvh(d)
	bounds := randomBounds(1000, 11, 0.01)
	bvh.Build(bounds)

	// Move everything, refit without rebuilding topology.
	shift := mgl64.Vec3{0.5, -0.25, 0.125}
	for i := range bounds {
		bounds[i].Lower = bounds[i].Lower.Add(shift)
		bounds[i].Upper = bounds[i].Upper.Add(shift)
	}
	bvh.Refit(bounds)

	root := bvh.Nodes()[0].Box
	for i, b := range bounds {
		if !root.Contains(b.Lower) || !root.Contains(b.Upper) {
			t.Fatalf("root box does not enclose leaf %d after refit", i)
		}
	}

	// Soundness must survive the refit.
	pairs, ok := bvh.QueryPairs(bounds, make([]Pair, 0, 1<<16))
	if !ok {
		t.Fatal("pair buffer overflow")
	}
	checkExactMatch(t, pairs, bounds)
}

func TestBvhQueryRay(t *testing.T) {
	d := kernels.NewDispatcher(2)
	bvh := NewBvh(d)

	// Three unit boxes along X at 0, 5, 10.
	bounds := []geom.Aabb{
		geom.NewAabb(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}),
		geom.NewAabb(mgl64.Vec3{4, -1, -1}, mgl64.Vec3{6, 1, 1}),
		geom.NewAabb(mgl64.Vec3{9, -1, -1}, mgl64.Vec3{11, 1, 1}),
	}
	bvh.Build(bounds)

	hits := bvh.QueryRay(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}, 100)
	if len(hits) != 3 {
		t.Fatalf("ray along X hit %v, want all three", hits)
	}

	hits = bvh.QueryRay(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}, 12)
	if len(hits) != 2 || hits[0] != 0 || hits[1] != 1 {
		t.Fatalf("bounded ray hit %v, want [0 1]", hits)
	}

	hits = bvh.QueryRay(mgl64.Vec3{-5, 10, 0}, mgl64.Vec3{1, 0, 0}, 100)
	if len(hits) != 0 {
		t.Fatalf("offset ray hit %v, want none", hits)
	}
}

func BenchmarkBvhBuild(b *testing.B) {
	d := kernels.NewDispatcher(0)
	bvh := NewBvh(d)
	bounds := randomBounds(100000, 1, 0.001)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bvh.Build(bounds)
	}
}

func BenchmarkBvhQueryPairs(b *testing.B) {
	d := kernels.NewDispatcher(0)
	bvh := NewBvh(d)
	bounds := randomBounds(100000, 1, 0.001)
	bvh.Build(bounds)
	dst := make([]Pair, 0, 1<<20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst = dst[:0]
		dst, _ = bvh.QueryPairs(bounds, dst)
	}
}
