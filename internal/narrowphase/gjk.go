package narrowphase

import (
	"github.com/Style3D/block/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// minkVert is a vertex of the Minkowski difference A - B along with the
// witness support points on both shapes, kept so EPA can reconstruct
// world-space contact positions.
type minkVert struct {
	p  mgl64.Vec3 // onA - onB
	onA mgl64.Vec3
	onB mgl64.Vec3
}

// simplex holds 1 to 4 Minkowski vertices. It grows point by point during
// GJK and, on hit, ends as a tetrahedron enclosing the origin.
type simplex struct {
	verts [4]minkVert
	count int
}

func (s *simplex) push(v minkVert) {
	s.verts[s.count] = v
	s.count++
}

// set replaces the simplex contents, newest vertex first.
func (s *simplex) set(vs ...minkVert) {
	s.count = len(vs)
	copy(s.verts[:], vs)
}

// minkowskiSupport samples the support point of A - B along dir.
func minkowskiSupport(a, b *geom.Primitive, dir mgl64.Vec3) minkVert {
	onA := a.SupportWorld(dir)
	onB := b.SupportWorld(dir.Mul(-1))
	return minkVert{p: onA.Sub(onB), onA: onA, onB: onB}
}

const gjkMaxIterations = 32

// gjk reports whether the two convex primitives intersect. On true the
// simplex contains the origin; it may hold fewer than four vertices when
// the hit was detected on a lower-dimensional feature.
func gjk(a, b *geom.Primitive, s *simplex) bool {
	dir := b.Transform.Position.Sub(a.Transform.Position)
	if dir.Dot(dir) < 1e-16 {
		dir = fallbackAxis
	}

	s.count = 0
	s.push(minkowskiSupport(a, b, dir))

	dir = s.verts[0].p.Mul(-1)
	if dir.Dot(dir) < 1e-16 {
		return true // first support lands on the origin
	}

	for i := 0; i < gjkMaxIterations; i++ {
		v := minkowskiSupport(a, b, dir)
		// The new support does not pass the origin: the shapes are
		// provably separated along dir.
		if v.p.Dot(dir) <= 0 {
			return false
		}
		s.push(v)
		if containsOrigin(s, &dir) {
			return true
		}
	}
	return false
}

// containsOrigin advances the simplex toward the origin, keeping only the
// feature nearest to it, and updates the search direction. Returns true
// once the simplex encloses the origin.
func containsOrigin(s *simplex, dir *mgl64.Vec3) bool {
	// Newest vertex is always last.
	switch s.count {
	case 2:
		return lineCase(s, dir)
	case 3:
		return triangleCase(s, dir)
	case 4:
		return tetrahedronCase(s, dir)
	}
	return false
}

func lineCase(s *simplex, dir *mgl64.Vec3) bool {
	a := s.verts[1] // newest
	b := s.verts[0]
	ab := b.p.Sub(a.p)
	ao := a.p.Mul(-1)

	if ab.Dot(ao) > 0 {
		*dir = ab.Cross(ao).Cross(ab)
		if dir.Dot(*dir) < 1e-24 {
			// Origin on the segment.
			return true
		}
	} else {
		s.set(a)
		*dir = ao
	}
	return false
}

func triangleCase(s *simplex, dir *mgl64.Vec3) bool {
	a := s.verts[2] // newest
	b := s.verts[1]
	c := s.verts[0]

	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ao := a.p.Mul(-1)
	abc := ab.Cross(ac)

	if abc.Cross(ac).Dot(ao) > 0 {
		if ac.Dot(ao) > 0 {
			s.set(c, a)
			*dir = ac.Cross(ao).Cross(ac)
		} else {
			s.set(b, a)
			return lineCase(s, dir)
		}
		return false
	}
	if ab.Cross(abc).Dot(ao) > 0 {
		s.set(b, a)
		return lineCase(s, dir)
	}

	// Origin is above or below the triangle's interior.
	if abc.Dot(ao) > 0 {
		*dir = abc
	} else {
		s.set(b, c, a)
		*dir = abc.Mul(-1)
	}
	if abc.Dot(abc) < 1e-24 {
		return true // degenerate triangle through the origin
	}
	return false
}

func tetrahedronCase(s *simplex, dir *mgl64.Vec3) bool {
	a := s.verts[3] // newest
	b := s.verts[2]
	c := s.verts[1]
	d := s.verts[0]

	ab := b.p.Sub(a.p)
	ac := c.p.Sub(a.p)
	ad := d.p.Sub(a.p)
	ao := a.p.Mul(-1)

	abc := ab.Cross(ac)
	acd := ac.Cross(ad)
	adb := ad.Cross(ab)

	if abc.Dot(ao) > 0 {
		s.set(c, b, a)
		return triangleCase(s, dir)
	}
	if acd.Dot(ao) > 0 {
		s.set(d, c, a)
		return triangleCase(s, dir)
	}
	if adb.Dot(ao) > 0 {
		s.set(b, d, a)
		return triangleCase(s, dir)
	}
	// Origin inside all three faces adjacent to the newest vertex.
	return true
}
