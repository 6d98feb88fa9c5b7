// Package broadphase builds a spatial index over per-primitive bounding
// boxes each step and enumerates every pair whose boxes overlap.
//
// The index is sound: a pair whose boxes do overlap is always emitted.
// Extra pairs are fine; the narrow phase discards them cheaply. Two
// implementations are provided, a linear BVH built from Morton-ordered
// leaves and a uniform spatial hash grid. Both emit pairs in canonical
// (A < B) order, sorted, so output is reproducible run to run.
package broadphase

import (
	"sort"

	"github.com/Style3D/block/internal/geom"
)

// Pair is a candidate colliding pair of primitive indices, A < B.
type Pair struct {
	A, B int32
}

// Key orders pairs lexicographically by (A, B).
func (p Pair) Key() uint64 {
	return uint64(uint32(p.A))<<32 | uint64(uint32(p.B))
}

// Index is a broad-phase acceleration structure. Build may be called
// repeatedly with different scenes; the index reuses its internal
// buffers across builds.
type Index interface {
	// Build rebuilds the index over the given world-space bounds.
	Build(bounds []geom.Aabb)

	// QueryPairs appends every candidate pair to dst and returns it.
	// If the total would exceed dst's capacity, it returns ok = false
	// and dst unchanged; the caller resizes and retries.
	QueryPairs(bounds []geom.Aabb, dst []Pair) (pairs []Pair, ok bool)
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Key() < pairs[j].Key()
	})
}

// dedupePairs removes adjacent duplicates from a sorted pair slice.
func dedupePairs(pairs []Pair) []Pair {
	out := pairs[:0]
	for i, p := range pairs {
		if i == 0 || p != pairs[i-1] {
			out = append(out, p)
		}
	}
	return out
}
