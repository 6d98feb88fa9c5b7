package narrowphase

import (
	"github.com/go-gl/mathgl/mgl64"
)

// closestOnSegment returns the point on segment [a, b] nearest to p and
// the clamp parameter t in [0, 1].
func closestOnSegment(p, a, b mgl64.Vec3) (mgl64.Vec3, float64) {
	ab := b.Sub(a)
	len2 := ab.Dot(ab)
	if len2 < 1e-24 {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / len2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Mul(t)), t
}

// closestSegmentSegment returns the nearest points on segments [p1, q1]
// and [p2, q2] along with their parameters.
//
// Reference: Ericson, "Real-Time Collision Detection", §5.1.9.
func closestSegmentSegment(p1, q1, p2, q2 mgl64.Vec3) (c1, c2 mgl64.Vec3, s, t float64) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	const eps = 1e-24

	switch {
	case a <= eps && e <= eps:
		return p1, p2, 0, 0
	case a <= eps:
		t = clamp01(f / e)
		return p1, p2.Add(d2.Mul(t)), 0, t
	}

	c := d1.Dot(r)
	if e <= eps {
		s = clamp01(-c / a)
		return p1.Add(d1.Mul(s)), p2, s, 0
	}

	b := d1.Dot(d2)
	denom := a*e - b*b
	if denom > eps {
		s = clamp01((b*f - c*e) / denom)
	} else {
		// Parallel segments: pick one end and project.
		s = 0
	}
	t = (b*s + f) / e
	if t < 0 {
		t = 0
		s = clamp01(-c / a)
	} else if t > 1 {
		t = 1
		s = clamp01((b - c) / a)
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t)), s, t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// segmentFeature classifies a clamp parameter for feature IDs.
func segmentFeature(t float64) uint32 {
	switch {
	case t <= 0:
		return 1
	case t >= 1:
		return 2
	}
	return 0
}
