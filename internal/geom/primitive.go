package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Primitive is a shape placed in world space. Scenes are plain slices of
// primitives owned by the caller; the core refers to them by index only.
type Primitive struct {
	Shape     Shape
	Transform Transform
}

// NewPrimitive places shape at the given transform.
func NewPrimitive(shape Shape, transform Transform) Primitive {
	return Primitive{Shape: shape, Transform: transform}
}

// IsValid reports whether the primitive can be collision tested.
func (p *Primitive) IsValid() bool {
	return p.Shape.IsValid() && p.Transform.IsFinite()
}

// SupportWorld returns the world-space point of the primitive furthest
// along the world-space direction dir.
func (p *Primitive) SupportWorld(dir mgl64.Vec3) mgl64.Vec3 {
	local := p.Transform.RotateDirInverse(dir)
	return p.Transform.Apply(p.Shape.Support(local))
}

// Bounds computes the world-space AABB of the primitive.
func (p *Primitive) Bounds() Aabb {
	switch p.Shape.Kind {
	case KindSphere:
		r := mgl64.Vec3{p.Shape.Radius, p.Shape.Radius, p.Shape.Radius}
		return Aabb{
			Lower: p.Transform.Position.Sub(r),
			Upper: p.Transform.Position.Add(r),
		}

	case KindCapsule:
		a := p.Transform.Apply(mgl64.Vec3{0, p.Shape.HalfHeight, 0})
		b := p.Transform.Apply(mgl64.Vec3{0, -p.Shape.HalfHeight, 0})
		r := mgl64.Vec3{p.Shape.Radius, p.Shape.Radius, p.Shape.Radius}
		return Aabb{
			Lower: vecMin(a, b).Sub(r),
			Upper: vecMax(a, b).Add(r),
		}

	case KindBox:
		// Project the rotated half extents onto the world axes: the
		// extent along axis i is sum_j |R_ij| * h_j.
		rot := p.Transform.Orientation.Mat4().Mat3()
		var ext mgl64.Vec3
		for i := 0; i < 3; i++ {
			ext[i] = math.Abs(rot.At(i, 0))*p.Shape.HalfExtents[0] +
				math.Abs(rot.At(i, 1))*p.Shape.HalfExtents[1] +
				math.Abs(rot.At(i, 2))*p.Shape.HalfExtents[2]
		}
		return Aabb{
			Lower: p.Transform.Position.Sub(ext),
			Upper: p.Transform.Position.Add(ext),
		}

	case KindConvexHull, KindMesh:
		box := EmptyAabb()
		for _, v := range p.Shape.Vertices {
			box = box.ExpandPoint(p.Transform.Apply(v))
		}
		return box
	}
	return EmptyAabb()
}

// TriangleWorld returns the world-space corners of mesh triangle i.
func (p *Primitive) TriangleWorld(i int) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	tri := p.Shape.Triangles[i]
	return p.Transform.Apply(p.Shape.Vertices[tri[0]]),
		p.Transform.Apply(p.Shape.Vertices[tri[1]]),
		p.Transform.Apply(p.Shape.Vertices[tri[2]])
}
