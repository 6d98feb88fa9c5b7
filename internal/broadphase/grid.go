package broadphase

import (
	"math"

	"github.com/Style3D/block/internal/geom"
	"github.com/Style3D/block/internal/kernels"
)

// Grid is a uniform spatial hash: each primitive is inserted into every
// cell its box overlaps, and candidate pairs are read out of shared
// cells. Cell count is a power of two so hashing is a mask.
type Grid struct {
	dispatcher *kernels.Dispatcher
	cellSize   float64
	cells      [][]int32
	mask       uint32

	scratch []Pair
}

// NewGrid builds a grid with the given cell size and bucket count hint.
// A cellSize of zero derives the size from the scene at build time.
func NewGrid(d *kernels.Dispatcher, cellSize float64, numCells int) *Grid {
	n := nextPowerOfTwo(numCells)
	cells := make([][]int32, n)
	return &Grid{
		dispatcher: d,
		cellSize:   cellSize,
		cells:      cells,
		mask:       uint32(n - 1),
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

// hashCell maps integer cell coordinates onto a bucket.
func (g *Grid) hashCell(x, y, z int32) uint32 {
	h := uint32(x)*73856093 ^ uint32(y)*19349663 ^ uint32(z)*83492791
	return h & g.mask
}

// Build implements Index.
func (g *Grid) Build(bounds []geom.Aabb) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	if len(bounds) == 0 {
		return
	}

	size := g.cellSize
	if size <= 0 {
		size = averageExtent(bounds)
	}
	inv := 1.0 / size

	// Insertion is serial: buckets are shared, and the per-insert work is
	// a handful of appends. The expensive part, pair enumeration, is
	// parallel in QueryPairs.
	for i, box := range bounds {
		x0, y0, z0 := cellCoords(box.Lower, inv)
		x1, y1, z1 := cellCoords(box.Upper, inv)
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				for z := z0; z <= z1; z++ {
					h := g.hashCell(x, y, z)
					g.cells[h] = append(g.cells[h], int32(i))
				}
			}
		}
	}
}

// QueryPairs implements Index. A pair spanning several cells is emitted
// once; duplicates are removed after the sorted merge.
func (g *Grid) QueryPairs(bounds []geom.Aabb, dst []Pair) ([]Pair, bool) {
	if len(bounds) < 2 {
		return dst, true
	}

	workers := g.dispatcher.Workers()
	local := make([][]Pair, workers)
	g.dispatcher.ParallelFor(len(g.cells), func(worker, start, end int) {
		out := local[worker]
		for c := start; c < end; c++ {
			bucket := g.cells[c]
			for i := 0; i < len(bucket); i++ {
				for j := i + 1; j < len(bucket); j++ {
					a, b := bucket[i], bucket[j]
					if a == b {
						continue
					}
					if a > b {
						a, b = b, a
					}
					if bounds[a].Overlaps(bounds[b]) {
						out = append(out, Pair{A: a, B: b})
					}
				}
			}
		}
		local[worker] = out
	})

	g.scratch = g.scratch[:0]
	for _, l := range local {
		g.scratch = append(g.scratch, l...)
	}
	sortPairs(g.scratch)
	unique := dedupePairs(g.scratch)

	if len(dst)+len(unique) > cap(dst) {
		return dst, false
	}
	return append(dst, unique...), true
}

func cellCoords(p [3]float64, inv float64) (int32, int32, int32) {
	return int32(math.Floor(p[0] * inv)),
		int32(math.Floor(p[1] * inv)),
		int32(math.Floor(p[2] * inv))
}

func averageExtent(bounds []geom.Aabb) float64 {
	sum := 0.0
	for _, b := range bounds {
		d := b.Upper.Sub(b.Lower)
		sum += (d[0] + d[1] + d[2]) / 3
	}
	avg := sum / float64(len(bounds))
	if avg <= 0 {
		return 1
	}
	// Cells somewhat larger than the average box keep occupancy low
	// without exploding the per-box cell count.
	return 2 * avg
}
