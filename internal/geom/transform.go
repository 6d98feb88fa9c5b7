package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform places a shape in world space.
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// IdentityTransform returns a transform with no translation or rotation.
func IdentityTransform() Transform {
	return Transform{Orientation: mgl64.QuatIdent()}
}

// TransformAt returns a pure translation at p.
func TransformAt(p mgl64.Vec3) Transform {
	return Transform{Position: p, Orientation: mgl64.QuatIdent()}
}

// Apply maps a local-space point into world space.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Rotate(p).Add(t.Position)
}

// ApplyInverse maps a world-space point into local space.
func (t Transform) ApplyInverse(p mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Conjugate().Rotate(p.Sub(t.Position))
}

// RotateDir maps a local direction into world space without translating.
func (t Transform) RotateDir(d mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Rotate(d)
}

// RotateDirInverse maps a world direction into local space.
func (t Transform) RotateDirInverse(d mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation.Conjugate().Rotate(d)
}

// IsFinite reports whether every component of the transform is a real number.
func (t Transform) IsFinite() bool {
	vals := [7]float64{
		t.Position[0], t.Position[1], t.Position[2],
		t.Orientation.W, t.Orientation.V[0], t.Orientation.V[1], t.Orientation.V[2],
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
