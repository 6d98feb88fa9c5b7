package narrowphase

import (
	"math"

	"github.com/Style3D/block/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// EPA expands the GJK termination simplex into a polytope whose boundary
// approaches the Minkowski difference surface near the origin, yielding
// the penetration depth, direction, and witness points.

const (
	epaMaxIterations = 64
	epaTolerance     = 1e-9
	epaMaxVerts      = 4 + epaMaxIterations
)

type epaFace struct {
	v0, v1, v2 int
	normal     mgl64.Vec3 // unit, outward
	dist       float64    // distance from origin along normal
}

type epaResult struct {
	normal mgl64.Vec3 // from surface toward the origin's exit point
	depth  float64
	onA    mgl64.Vec3
	onB    mgl64.Vec3
}

// epa runs the expanding polytope algorithm. The simplex must contain the
// origin. Returns false when a well-formed starting tetrahedron cannot be
// built, which only happens for fully degenerate configurations.
func epa(a, b *geom.Primitive, s *simplex, res *epaResult) bool {
	if !inflateSimplex(a, b, s) {
		return false
	}

	verts := make([]minkVert, 0, epaMaxVerts)
	verts = append(verts, s.verts[0], s.verts[1], s.verts[2], s.verts[3])

	faces := make([]epaFace, 0, 64)
	for _, tri := range [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
		f, ok := makeFace(verts, tri[0], tri[1], tri[2])
		if !ok {
			return false
		}
		faces = append(faces, f)
	}

	for iter := 0; iter < epaMaxIterations; iter++ {
		best := closestFace(faces)
		f := faces[best]

		w := minkowskiSupport(a, b, f.normal)
		growth := w.p.Dot(f.normal) - f.dist
		if growth < epaTolerance {
			finishEPA(verts, f, res)
			return true
		}

		verts = append(verts, w)
		faces = expandPolytope(verts, faces, len(verts)-1)
		if len(faces) == 0 {
			return false
		}
	}

	// Iteration budget exhausted: report the best face found so far.
	finishEPA(verts, faces[closestFace(faces)], res)
	return true
}

// inflateSimplex grows a lower-dimensional GJK simplex into a proper
// tetrahedron by probing supports along fixed axes.
func inflateSimplex(a, b *geom.Primitive, s *simplex) bool {
	axes := []mgl64.Vec3{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	}

	for _, axis := range axes {
		if s.count >= 4 {
			break
		}
		w := minkowskiSupport(a, b, axis)
		if simplexDegenerateWith(s, w) {
			continue
		}
		s.push(w)
	}
	return s.count == 4 && !tetraDegenerate(s)
}

// simplexDegenerateWith reports whether adding w would not increase the
// simplex's dimension.
func simplexDegenerateWith(s *simplex, w minkVert) bool {
	const eps2 = 1e-18
	switch s.count {
	case 0:
		return false
	case 1:
		return w.p.Sub(s.verts[0].p).Dot(w.p.Sub(s.verts[0].p)) < eps2
	case 2:
		d := s.verts[1].p.Sub(s.verts[0].p)
		r := w.p.Sub(s.verts[0].p)
		cr := d.Cross(r)
		return cr.Dot(cr) < eps2
	case 3:
		n := s.verts[1].p.Sub(s.verts[0].p).Cross(s.verts[2].p.Sub(s.verts[0].p))
		return math.Abs(n.Dot(w.p.Sub(s.verts[0].p))) < 1e-12
	}
	return true
}

func tetraDegenerate(s *simplex) bool {
	d1 := s.verts[1].p.Sub(s.verts[0].p)
	d2 := s.verts[2].p.Sub(s.verts[0].p)
	d3 := s.verts[3].p.Sub(s.verts[0].p)
	return math.Abs(d1.Cross(d2).Dot(d3)) < 1e-18
}

// makeFace builds a face with an outward normal. The origin is interior,
// so outward means the normal points away from it.
func makeFace(verts []minkVert, i0, i1, i2 int) (epaFace, bool) {
	p0 := verts[i0].p
	n := verts[i1].p.Sub(p0).Cross(verts[i2].p.Sub(p0))
	len2 := n.Dot(n)
	if len2 < 1e-24 {
		return epaFace{}, false
	}
	n = n.Mul(1 / math.Sqrt(len2))
	d := n.Dot(p0)
	if d < 0 {
		n = n.Mul(-1)
		d = -d
		i1, i2 = i2, i1
	}
	return epaFace{v0: i0, v1: i1, v2: i2, normal: n, dist: d}, true
}

func closestFace(faces []epaFace) int {
	best := 0
	bestDist := math.Inf(1)
	for i, f := range faces {
		if f.dist < bestDist {
			bestDist = f.dist
			best = i
		}
	}
	return best
}

// expandPolytope removes every face visible from the new vertex and
// stitches the resulting horizon to it.
func expandPolytope(verts []minkVert, faces []epaFace, newVert int) []epaFace {
	w := verts[newVert].p

	type edge struct{ a, b int }
	edgeCount := make(map[edge]int)
	addEdge := func(a, b int) {
		// A horizon edge appears in exactly one removed face; shared
		// edges appear twice with opposite orientation and cancel.
		if edgeCount[edge{b, a}] > 0 {
			edgeCount[edge{b, a}]--
		} else {
			edgeCount[edge{a, b}]++
		}
	}

	kept := faces[:0]
	for _, f := range faces {
		if f.normal.Dot(w.Sub(verts[f.v0].p)) > 0 {
			addEdge(f.v0, f.v1)
			addEdge(f.v1, f.v2)
			addEdge(f.v2, f.v0)
		} else {
			kept = append(kept, f)
		}
	}

	for e, c := range edgeCount {
		for ; c > 0; c-- {
			if f, ok := makeFace(verts, e.a, e.b, newVert); ok {
				kept = append(kept, f)
			}
		}
	}
	return kept
}

// finishEPA projects the origin onto the closest face and interpolates
// the witness points barycentrically.
func finishEPA(verts []minkVert, f epaFace, res *epaResult) {
	v0, v1, v2 := verts[f.v0], verts[f.v1], verts[f.v2]

	// Closest point on the face plane to the origin.
	proj := f.normal.Mul(f.dist)
	u, v, w := barycentric(proj, v0.p, v1.p, v2.p)

	res.onA = v0.onA.Mul(u).Add(v1.onA.Mul(v)).Add(v2.onA.Mul(w))
	res.onB = v0.onB.Mul(u).Add(v1.onB.Mul(v)).Add(v2.onB.Mul(w))
	res.depth = f.dist
	// The face normal points from the origin outward, i.e. in the
	// direction B penetrates A; the contact normal from B to A is its
	// opposite.
	res.normal = f.normal.Mul(-1)
}

func barycentric(p, a, b, c mgl64.Vec3) (float64, float64, float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-24 {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}
