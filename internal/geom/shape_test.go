package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSphereBounds(t *testing.T) {
	p := NewPrimitive(Sphere(2), TransformAt(mgl64.Vec3{1, 0, -1}))
	box := p.Bounds()
	if box.Lower != (mgl64.Vec3{-1, -2, -3}) || box.Upper != (mgl64.Vec3{3, 2, 1}) {
		t.Errorf("bounds = %v %v", box.Lower, box.Upper)
	}
}

func TestCapsuleBounds(t *testing.T) {
	p := NewPrimitive(Capsule(0.5, 1), TransformAt(mgl64.Vec3{0, 0, 0}))
	box := p.Bounds()
	want := NewAabb(mgl64.Vec3{-0.5, -1.5, -0.5}, mgl64.Vec3{0.5, 1.5, 0.5})
	if box != want {
		t.Errorf("bounds = %v %v", box.Lower, box.Upper)
	}
}

func TestBoxBoundsRotated(t *testing.T) {
	// A unit cube rotated 45 degrees about Z widens to sqrt(2) in X and Y.
	rot := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})
	p := NewPrimitive(Box(1, 1, 1), Transform{Orientation: rot})
	box := p.Bounds()

	s := math.Sqrt2
	if !mgl64.FloatEqualThreshold(box.Upper[0], s, 1e-9) ||
		!mgl64.FloatEqualThreshold(box.Upper[1], s, 1e-9) ||
		!mgl64.FloatEqualThreshold(box.Upper[2], 1, 1e-9) {
		t.Errorf("upper = %v, want (%v, %v, 1)", box.Upper, s, s)
	}
}

func TestConvexHullBounds(t *testing.T) {
	verts := []mgl64.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	}
	p := NewPrimitive(ConvexHull(verts), TransformAt(mgl64.Vec3{10, 0, 0}))
	box := p.Bounds()
	if box.Lower != (mgl64.Vec3{10, 0, 0}) || box.Upper != (mgl64.Vec3{11, 1, 1}) {
		t.Errorf("bounds = %v %v", box.Lower, box.Upper)
	}
}

func TestSupportWorld(t *testing.T) {
	p := NewPrimitive(Box(1, 2, 3), TransformAt(mgl64.Vec3{5, 0, 0}))

	got := p.SupportWorld(mgl64.Vec3{1, 1, 1})
	if got != (mgl64.Vec3{6, 2, 3}) {
		t.Errorf("support = %v, want (6, 2, 3)", got)
	}

	got = p.SupportWorld(mgl64.Vec3{-1, 0.5, -2})
	if got != (mgl64.Vec3{4, 2, -3}) {
		t.Errorf("support = %v, want (4, 2, -3)", got)
	}
}

func TestCapsuleSupport(t *testing.T) {
	s := Capsule(1, 2)
	up := s.Support(mgl64.Vec3{0, 1, 0})
	if !mgl64.FloatEqualThreshold(up[1], 3, 1e-12) {
		t.Errorf("top support = %v, want y=3", up)
	}
	down := s.Support(mgl64.Vec3{0, -1, 0})
	if !mgl64.FloatEqualThreshold(down[1], -3, 1e-12) {
		t.Errorf("bottom support = %v, want y=-3", down)
	}
}

func TestShapeIsValid(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		valid bool
	}{
		{"sphere", Sphere(1), true},
		{"zero sphere", Sphere(0), false},
		{"negative sphere", Sphere(-1), false},
		{"nan sphere", Sphere(math.NaN()), false},
		{"capsule", Capsule(0.5, 1), true},
		{"degenerate capsule", Capsule(0.5, 0), true}, // a sphere, still usable
		{"bad capsule", Capsule(0, 1), false},
		{"box", Box(1, 1, 1), true},
		{"flat box", Box(1, 0, 1), false},
		{"hull", ConvexHull([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}), true},
		{"thin hull", ConvexHull([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}), false},
		{"mesh", TriangleMesh([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, [][3]int32{{0, 1, 2}}), true},
		{"mesh bad index", TriangleMesh([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, [][3]int32{{0, 1, 5}}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestPrimitiveInvalidTransform(t *testing.T) {
	p := NewPrimitive(Sphere(1), TransformAt(mgl64.Vec3{math.NaN(), 0, 0}))
	if p.IsValid() {
		t.Error("primitive with NaN position should be invalid")
	}
}
