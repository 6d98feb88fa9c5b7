package broadphase

import (
	"math/bits"
	"sort"
	"sync/atomic"

	"github.com/Style3D/block/internal/geom"
	"github.com/Style3D/block/internal/kernels"
	"github.com/go-gl/mathgl/mgl64"
)

// BvhNode is one node of the linearized BVH. LeftOrLeaf holds the left
// child index for internal nodes and -(primitive+1) for leaves. Escape is
// the next node to visit when the subtree is skipped; -1 terminates the
// traversal.
type BvhNode struct {
	Box        geom.Aabb
	LeftOrLeaf int32
	Escape     int32
}

// Bvh is a linear bounding volume hierarchy built from Morton-ordered
// leaves with a binary radix tree, refit bottom-up, and compacted into a
// node array traversed stacklessly via escape indices.
type Bvh struct {
	dispatcher *kernels.Dispatcher

	numLeaves int

	// Construction scratch, reused across builds.
	lowers      []mgl64.Vec3
	uppers      []mgl64.Vec3
	mortons     []uint32
	leafIndices []int32
	left        []int32
	right       []int32
	parent      []int32
	escape      []int32
	flags       []int32
	boxes       []geom.Aabb

	// Compacted nodes; internal nodes occupy [0, numLeaves-1), leaves the
	// remainder, in radix tree index order.
	nodes []BvhNode
}

// NewBvh returns an empty BVH that dispatches its kernels on d.
func NewBvh(d *kernels.Dispatcher) *Bvh {
	return &Bvh{dispatcher: d}
}

// Build rebuilds the full hierarchy from scratch over the given bounds.
func (b *Bvh) Build(bounds []geom.Aabb) {
	n := len(bounds)
	b.numLeaves = n
	if n == 0 {
		b.nodes = b.nodes[:0]
		return
	}

	b.resize(n)

	d := b.dispatcher
	d.ParallelFor(n, func(_, start, end int) {
		for i := start; i < end; i++ {
			b.lowers[i] = bounds[i].Lower
			b.uppers[i] = bounds[i].Upper
			b.leafIndices[i] = int32(i)
		}
	})

	// Scene-level AABB, then Morton codes over scene-normalized centers.
	sceneLo, sceneHi := d.ReduceBounds(b.lowers, b.uppers)
	extent := sceneHi.Sub(sceneLo)
	for c := 0; c < 3; c++ {
		if extent[c] <= 0 {
			extent[c] = 1
		}
	}
	d.ParallelFor(n, func(_, start, end int) {
		for i := start; i < end; i++ {
			center := bounds[i].Center()
			p := mgl64.Vec3{
				(center[0] - sceneLo[0]) / extent[0],
				(center[1] - sceneLo[1]) / extent[1],
				(center[2] - sceneLo[2]) / extent[2],
			}
			b.mortons[i] = mortonEncode(p)
		}
	})

	// Sort leaves into Z-order. Ties fall back to the leaf index, which
	// keeps the order, and with it the whole tree, deterministic.
	sort.Slice(b.leafIndices, func(i, j int) bool {
		mi, mj := b.mortons[b.leafIndices[i]], b.mortons[b.leafIndices[j]]
		if mi != mj {
			return mi < mj
		}
		return b.leafIndices[i] < b.leafIndices[j]
	})
	sorted := make([]uint32, n)
	for i, li := range b.leafIndices {
		sorted[i] = b.mortons[li]
	}
	copy(b.mortons, sorted)

	if n > 1 {
		d.ParallelFor(n-1, func(_, start, end int) {
			for i := start; i < end; i++ {
				b.buildRadixNode(int32(i))
			}
		})
		b.parent[0] = -1
	} else {
		b.parent[0] = -1
	}

	b.assignEscapeIndices()
	b.Refit(bounds)
}

// Refit updates the node bounding boxes bottom-up without touching the
// topology. Valid only while the leaf count is unchanged.
func (b *Bvh) Refit(bounds []geom.Aabb) {
	n := b.numLeaves
	if n == 0 {
		return
	}

	numInternal := n - 1
	for i := 0; i < numInternal; i++ {
		b.flags[i] = 0
	}

	// Each leaf climbs toward the root. The second child to arrive at a
	// parent merges both subtree boxes; the first stops. The atomic add
	// both counts arrivals and publishes the sibling's box write.
	b.dispatcher.ParallelFor(n, func(_, start, end int) {
		for tid := start; tid < end; tid++ {
			leaf := b.leafIndices[tid]
			current := int32(numInternal + tid)
			box := bounds[leaf]
			b.boxes[current] = box

			parent := b.parent[current]
			for parent != -1 {
				if atomic.AddInt32(&b.flags[parent], 1) != 2 {
					break
				}
				if current == b.left[parent] {
					box = box.Merge(b.boxes[b.right[parent]])
				} else {
					box = box.Merge(b.boxes[b.left[parent]])
				}
				current = parent
				b.boxes[current] = box
				parent = b.parent[current]
			}
		}
	})

	b.compact()
}

// Nodes exposes the compacted node array, primarily for tests and the
// ray query.
func (b *Bvh) Nodes() []BvhNode { return b.nodes }

// QueryPairs implements Index. Each leaf traverses the tree and emits
// pairs against leaves with a greater primitive index, so every
// overlapping pair surfaces exactly once.
func (b *Bvh) QueryPairs(bounds []geom.Aabb, dst []Pair) ([]Pair, bool) {
	n := b.numLeaves
	if n < 2 {
		return dst, true
	}

	workers := b.dispatcher.Workers()
	local := make([][]Pair, workers)
	b.dispatcher.ParallelFor(n, func(worker, start, end int) {
		out := local[worker]
		for tid := start; tid < end; tid++ {
			a := b.leafIndices[tid]
			query := bounds[a]
			idx := int32(0)
			for idx != -1 {
				node := &b.nodes[idx]
				if query.Overlaps(node.Box) {
					if node.LeftOrLeaf < 0 {
						p := -node.LeftOrLeaf - 1
						if p > a {
							out = append(out, Pair{A: a, B: p})
						}
						idx = node.Escape
					} else {
						idx = node.LeftOrLeaf
					}
				} else {
					idx = node.Escape
				}
			}
		}
		local[worker] = out
	})

	total := 0
	for _, l := range local {
		total += len(l)
	}
	if len(dst)+total > cap(dst) {
		return dst, false
	}
	for _, l := range local {
		dst = append(dst, l...)
	}
	sortPairs(dst)
	return dst, true
}

// QueryRay returns the primitive indices of every leaf whose box the ray
// origin + t*dir intersects with t in [0, maxT].
func (b *Bvh) QueryRay(origin, dir mgl64.Vec3, maxT float64) []int32 {
	if b.numLeaves == 0 {
		return nil
	}
	invDir := mgl64.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}

	var hits []int32
	idx := int32(0)
	for idx != -1 {
		node := &b.nodes[idx]
		hit, tmin, _ := node.Box.IntersectRay(origin, invDir)
		if hit && tmin <= maxT {
			if node.LeftOrLeaf < 0 {
				hits = append(hits, -node.LeftOrLeaf-1)
				idx = node.Escape
			} else {
				idx = node.LeftOrLeaf
			}
		} else {
			idx = node.Escape
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i] < hits[j] })
	return hits
}

func (b *Bvh) resize(n int) {
	total := 2*n - 1
	if cap(b.lowers) < n {
		b.lowers = make([]mgl64.Vec3, n)
		b.uppers = make([]mgl64.Vec3, n)
		b.mortons = make([]uint32, n)
		b.leafIndices = make([]int32, n)
		b.left = make([]int32, n)
		b.right = make([]int32, n)
		b.flags = make([]int32, n)
		b.parent = make([]int32, total)
		b.escape = make([]int32, total)
		b.boxes = make([]geom.Aabb, total)
		b.nodes = make([]BvhNode, total)
	}
	b.lowers = b.lowers[:n]
	b.uppers = b.uppers[:n]
	b.mortons = b.mortons[:n]
	b.leafIndices = b.leafIndices[:n]
	b.left = b.left[:n]
	b.right = b.right[:n]
	b.flags = b.flags[:n]
	b.parent = b.parent[:total]
	b.escape = b.escape[:total]
	b.boxes = b.boxes[:total]
	b.nodes = b.nodes[:total]
}

// commonPrefix is the shared leading bit count of two Morton codes,
// extended with leaf indices so keys are always distinct.
func commonPrefix(m0, m1 uint32, i, j int32) int {
	if m0 != m1 {
		return bits.LeadingZeros32(m0 ^ m1)
	}
	return bits.LeadingZeros32(uint32(i)^uint32(j)) + 32
}

func (b *Bvh) delta(m0 uint32, i, j int32) int {
	if j < 0 || int(j) >= b.numLeaves {
		return -1
	}
	return commonPrefix(m0, b.mortons[j], i, j)
}

// buildRadixNode derives internal node i of the radix tree from the
// sorted Morton codes.
//
// Reference: Karras, "Maximizing Parallelism in the Construction of BVHs,
// Octrees, and k-d Trees" (2012).
func (b *Bvh) buildRadixNode(i int32) {
	m0 := b.mortons[i]
	numLeaves := int32(b.numLeaves)

	dl := b.delta(m0, i, i-1)
	dr := b.delta(m0, i, i+1)
	d := int32(1)
	if dr < dl {
		d = -1
	}
	dmin := dl
	if dr < dmin {
		dmin = dr
	}

	// Expand an upper bound on the range length, then binary search back.
	lmax := int32(2)
	for b.delta(m0, i, i+lmax*d) > dmin {
		lmax *= 2
	}
	l := int32(0)
	for t := lmax / 2; t >= 1; t /= 2 {
		if b.delta(m0, i, i+(l+t)*d) > dmin {
			l += t
		}
	}
	j := i + l*d
	first, last := i, j
	if j < i {
		first, last = j, i
	}

	split := b.findSplit(first, last)

	left, right := split, split+1
	if first == left {
		left += numLeaves - 1
	}
	if last == right {
		right += numLeaves - 1
	}

	b.left[i] = left
	b.right[i] = right
	b.parent[left] = i
	b.parent[right] = i
}

func (b *Bvh) findSplit(first, last int32) int32 {
	firstCode := b.mortons[first]
	lastCode := b.mortons[last]
	dmin := commonPrefix(firstCode, lastCode, first, last)

	// Highest position sharing more than dmin bits with first.
	split := first
	step := last - first
	for step > 1 {
		step = (step + 1) / 2
		if next := split + step; next < last {
			if commonPrefix(firstCode, b.mortons[next], first, next) > dmin {
				split = next
			}
		}
	}
	return split
}

// assignEscapeIndices computes, for every node, the node to resume
// traversal at once its subtree has been visited.
func (b *Bvh) assignEscapeIndices() {
	n := b.numLeaves
	numInternal := int32(n - 1)

	b.dispatcher.ParallelFor(n, func(_, start, end int) {
		for tid := start; tid < end; tid++ {
			escape := int32(-1)
			current := int32(0)
			if int32(tid) < numInternal {
				current = b.left[tid]
				escape = b.right[tid]
			}
			b.escape[current] = escape
			// The right spine of the subtree exits to the same place.
			for current < numInternal {
				current = b.right[current]
				b.escape[current] = escape
			}
		}
	})
}

func (b *Bvh) compact() {
	n := b.numLeaves
	numInternal := n - 1
	b.dispatcher.ParallelFor(2*n-1, func(_, start, end int) {
		for tid := start; tid < end; tid++ {
			node := BvhNode{Box: b.boxes[tid], Escape: b.escape[tid]}
			if tid < numInternal {
				node.LeftOrLeaf = b.left[tid]
			} else {
				node.LeftOrLeaf = -b.leafIndices[tid-numInternal] - 1
			}
			b.nodes[tid] = node
		}
	})
}
