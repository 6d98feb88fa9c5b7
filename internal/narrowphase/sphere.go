package narrowphase

import (
	"math"

	"github.com/Style3D/block/internal/contact"
	"github.com/Style3D/block/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// fallbackAxis is the stable normal used when two shapes are so close to
// coincident that no direction can be derived from geometry. Emitting a
// contact with a fixed axis keeps downstream solves free of NaNs.
var fallbackAxis = mgl64.Vec3{1, 0, 0}

// spherePoint emits the contact between two spheres given by world-space
// centers and radii, with the normal pointing from center b toward
// center a. Shared by the sphere, capsule, and capsule-capsule tests.
func spherePoint(pa, pb mgl64.Vec3, ra, rb float64, feature uint32, out []contact.Contact) []contact.Contact {
	delta := pa.Sub(pb)
	dist2 := delta.Dot(delta)
	sum := ra + rb
	if dist2 > sum*sum {
		return out
	}

	dist := math.Sqrt(dist2)
	var normal mgl64.Vec3
	if dist > 1e-12 {
		normal = delta.Mul(1 / dist)
	} else {
		normal = fallbackAxis
	}

	onA := pa.Sub(normal.Mul(ra))
	onB := pb.Add(normal.Mul(rb))
	return append(out, contact.Contact{
		Position: onA.Add(onB).Mul(0.5),
		Normal:   normal,
		Depth:    sum - dist,
		Feature:  feature,
	})
}

// sphereSphere tests two spheres.
func sphereSphere(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	return spherePoint(
		a.Transform.Position, b.Transform.Position,
		a.Shape.Radius, b.Shape.Radius,
		0, out,
	)
}

// capsuleSegment returns the world-space endpoints of a capsule's core
// segment.
func capsuleSegment(p *geom.Primitive) (mgl64.Vec3, mgl64.Vec3) {
	h := p.Shape.HalfHeight
	return p.Transform.Apply(mgl64.Vec3{0, h, 0}),
		p.Transform.Apply(mgl64.Vec3{0, -h, 0})
}

// sphereCapsule tests a sphere (first) against a capsule (second).
func sphereCapsule(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	e0, e1 := capsuleSegment(b)
	onSeg, t := closestOnSegment(a.Transform.Position, e0, e1)
	return spherePoint(
		a.Transform.Position, onSeg,
		a.Shape.Radius, b.Shape.Radius,
		segmentFeature(t), out,
	)
}

// capsuleCapsule tests two capsules via their core segments.
func capsuleCapsule(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	a0, a1 := capsuleSegment(a)
	b0, b1 := capsuleSegment(b)
	ca, cb, s, t := closestSegmentSegment(a0, a1, b0, b1)
	feature := segmentFeature(s)<<2 | segmentFeature(t)
	return spherePoint(ca, cb, a.Shape.Radius, b.Shape.Radius, feature, out)
}

// sphereBox tests a sphere (first) against a box (second).
func sphereBox(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	r := a.Shape.Radius
	h := b.Shape.HalfExtents

	// Work in the box's local frame.
	c := b.Transform.ApplyInverse(a.Transform.Position)

	clamped := mgl64.Vec3{
		math.Min(math.Max(c[0], -h[0]), h[0]),
		math.Min(math.Max(c[1], -h[1]), h[1]),
		math.Min(math.Max(c[2], -h[2]), h[2]),
	}

	if clamped != c {
		// Center outside the box: closest-point test.
		delta := c.Sub(clamped)
		dist2 := delta.Dot(delta)
		if dist2 > r*r {
			return out
		}
		dist := math.Sqrt(dist2)
		localNormal := delta.Mul(1 / dist)
		normal := b.Transform.RotateDir(localNormal)
		return append(out, contact.Contact{
			Position: b.Transform.Apply(clamped),
			Normal:   normal,
			Depth:    r - dist,
			Feature:  boxRegionFeature(c, h),
		})
	}

	// Center inside the box: push out along the face of least penetration.
	axis, sign := 0, 1.0
	minDepth := math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := h[i] - c[i]; d < minDepth {
			minDepth, axis, sign = d, i, 1
		}
		if d := h[i] + c[i]; d < minDepth {
			minDepth, axis, sign = d, i, -1
		}
	}
	var localNormal mgl64.Vec3
	localNormal[axis] = sign

	onFace := c
	onFace[axis] = sign * h[axis]

	return append(out, contact.Contact{
		Position: b.Transform.Apply(onFace),
		Normal:   b.Transform.RotateDir(localNormal),
		Depth:    r + minDepth,
		Feature:  uint32(axis)<<1 | signBit(sign),
	})
}

// boxRegionFeature encodes which face/edge/corner region of the box the
// local point p falls in, one of 3^3 Voronoi regions.
func boxRegionFeature(p, h mgl64.Vec3) uint32 {
	var code uint32
	for i := 0; i < 3; i++ {
		var r uint32
		if p[i] > h[i] {
			r = 1
		} else if p[i] < -h[i] {
			r = 2
		}
		code |= r << (2 * uint(i))
	}
	return code
}

func signBit(s float64) uint32 {
	if s < 0 {
		return 1
	}
	return 0
}
