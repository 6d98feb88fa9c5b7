package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Aabb is an axis-aligned bounding box given by its two extreme corners.
type Aabb struct {
	Lower mgl64.Vec3
	Upper mgl64.Vec3
}

// NewAabb builds an AABB from the given bounds.
func NewAabb(lower, upper mgl64.Vec3) Aabb {
	return Aabb{Lower: lower, Upper: upper}
}

// EmptyAabb returns an AABB with inverted infinite bounds, the identity
// element of Merge and ExpandPoint.
func EmptyAabb() Aabb {
	inf := math.Inf(1)
	return Aabb{
		Lower: mgl64.Vec3{inf, inf, inf},
		Upper: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// Center returns the midpoint of the box.
func (a Aabb) Center() mgl64.Vec3 {
	return a.Lower.Add(a.Upper).Mul(0.5)
}

// SurfaceArea returns the total surface area of the box, used as the
// cost metric when evaluating tree quality.
func (a Aabb) SurfaceArea() float64 {
	d := a.Upper.Sub(a.Lower)
	return 2.0 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Merge returns the smallest AABB enclosing both boxes.
func (a Aabb) Merge(b Aabb) Aabb {
	return Aabb{
		Lower: vecMin(a.Lower, b.Lower),
		Upper: vecMax(a.Upper, b.Upper),
	}
}

// ExpandPoint grows the box to include p.
func (a Aabb) ExpandPoint(p mgl64.Vec3) Aabb {
	return Aabb{
		Lower: vecMin(a.Lower, p),
		Upper: vecMax(a.Upper, p),
	}
}

// Inflate grows the box by margin on every side.
func (a Aabb) Inflate(margin float64) Aabb {
	m := mgl64.Vec3{margin, margin, margin}
	return Aabb{Lower: a.Lower.Sub(m), Upper: a.Upper.Add(m)}
}

// Contains reports whether p lies inside the box, boundaries included.
func (a Aabb) Contains(p mgl64.Vec3) bool {
	return p[0] >= a.Lower[0] && p[1] >= a.Lower[1] && p[2] >= a.Lower[2] &&
		p[0] <= a.Upper[0] && p[1] <= a.Upper[1] && p[2] <= a.Upper[2]
}

// Overlaps reports whether the two boxes intersect, boundaries included.
func (a Aabb) Overlaps(b Aabb) bool {
	return a.Lower[0] <= b.Upper[0] && a.Lower[1] <= b.Upper[1] && a.Lower[2] <= b.Upper[2] &&
		b.Lower[0] <= a.Upper[0] && b.Lower[1] <= a.Upper[1] && b.Lower[2] <= a.Upper[2]
}

// IsValid reports whether the box has finite, ordered bounds.
func (a Aabb) IsValid() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(a.Lower[i]) || math.IsNaN(a.Upper[i]) ||
			math.IsInf(a.Lower[i], 0) || math.IsInf(a.Upper[i], 0) {
			return false
		}
		if a.Lower[i] > a.Upper[i] {
			return false
		}
	}
	return true
}

// IntersectRay tests the ray origin + t*dir against the box using the
// slab method. invDir holds the per-component reciprocal of the ray
// direction. Returns the hit flag and the entry/exit parameters.
func (a Aabb) IntersectRay(origin, invDir mgl64.Vec3) (bool, float64, float64) {
	t1 := (a.Lower[0] - origin[0]) * invDir[0]
	t2 := (a.Upper[0] - origin[0]) * invDir[0]

	tmin := math.Min(t1, t2)
	tmax := math.Max(t1, t2)

	t1 = (a.Lower[1] - origin[1]) * invDir[1]
	t2 = (a.Upper[1] - origin[1]) * invDir[1]

	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	t1 = (a.Lower[2] - origin[2]) * invDir[2]
	t2 = (a.Upper[2] - origin[2]) * invDir[2]

	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	return tmax >= math.Max(tmin, 0.0), tmin, tmax
}

// IntersectSegment tests the finite segment p0-p1 against the box.
func (a Aabb) IntersectSegment(p0, p1 mgl64.Vec3) bool {
	dir := p1.Sub(p0)
	invDir := mgl64.Vec3{1.0 / dir[0], 1.0 / dir[1], 1.0 / dir[2]}
	hit, tmin, tmax := a.IntersectRay(p0, invDir)
	return hit && tmin <= 1.0 && tmax >= 0.0
}

func vecMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Min(a[0], b[0]),
		math.Min(a[1], b[1]),
		math.Min(a[2], b[2]),
	}
}

func vecMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Max(a[0], b[0]),
		math.Max(a[1], b[1]),
		math.Max(a[2], b[2]),
	}
}
