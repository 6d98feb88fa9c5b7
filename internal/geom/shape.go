package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags the geometry carried by a Shape. The narrow phase dispatches
// pair tests on the unordered combination of two kinds.
type Kind uint8

const (
	KindSphere Kind = iota
	KindCapsule
	KindBox
	KindConvexHull
	KindMesh

	NumKinds = 5
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCapsule:
		return "capsule"
	case KindBox:
		return "box"
	case KindConvexHull:
		return "convex"
	case KindMesh:
		return "mesh"
	}
	return "unknown"
}

// Shape is a tagged union of the supported collision geometries. Only the
// fields relevant to Kind are meaningful.
type Shape struct {
	Kind Kind

	// Sphere and capsule.
	Radius float64

	// Capsule: half the length of the core segment, which runs along the
	// local Y axis.
	HalfHeight float64

	// Box half extents along the local axes.
	HalfExtents mgl64.Vec3

	// Convex hull and mesh vertices in local space.
	Vertices []mgl64.Vec3

	// Mesh triangles as vertex index triplets with counter-clockwise winding.
	Triangles [][3]int32
}

// Sphere builds a sphere shape of the given radius.
func Sphere(radius float64) Shape {
	return Shape{Kind: KindSphere, Radius: radius}
}

// Capsule builds a capsule whose core segment spans [-halfHeight, halfHeight]
// on the local Y axis.
func Capsule(radius, halfHeight float64) Shape {
	return Shape{Kind: KindCapsule, Radius: radius, HalfHeight: halfHeight}
}

// Box builds a box with the given half extents.
func Box(hx, hy, hz float64) Shape {
	return Shape{Kind: KindBox, HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

// ConvexHull builds a convex hull over the given local-space vertices.
// The vertex set is assumed convex; no hull computation is performed.
func ConvexHull(vertices []mgl64.Vec3) Shape {
	return Shape{Kind: KindConvexHull, Vertices: vertices}
}

// TriangleMesh builds a triangle mesh shape over the given vertex and
// index buffers.
func TriangleMesh(vertices []mgl64.Vec3, triangles [][3]int32) Shape {
	return Shape{Kind: KindMesh, Vertices: vertices, Triangles: triangles}
}

// IsValid reports whether the shape has usable, non-degenerate parameters.
// Invalid shapes are skipped by the narrow phase rather than aborting a step.
func (s Shape) IsValid() bool {
	switch s.Kind {
	case KindSphere:
		return isFinitePositive(s.Radius)
	case KindCapsule:
		return isFinitePositive(s.Radius) && s.HalfHeight >= 0 && !math.IsNaN(s.HalfHeight) && !math.IsInf(s.HalfHeight, 0)
	case KindBox:
		return isFinitePositive(s.HalfExtents[0]) &&
			isFinitePositive(s.HalfExtents[1]) &&
			isFinitePositive(s.HalfExtents[2])
	case KindConvexHull:
		if len(s.Vertices) < 4 {
			return false
		}
		return verticesFinite(s.Vertices)
	case KindMesh:
		if len(s.Vertices) < 3 || len(s.Triangles) == 0 {
			return false
		}
		for _, tri := range s.Triangles {
			for _, idx := range tri {
				if idx < 0 || int(idx) >= len(s.Vertices) {
					return false
				}
			}
		}
		return verticesFinite(s.Vertices)
	}
	return false
}

// Support returns the local-space point of the shape furthest along dir.
// Meshes have no support mapping; the narrow phase decomposes them into
// triangles before reaching here.
func (s Shape) Support(dir mgl64.Vec3) mgl64.Vec3 {
	switch s.Kind {
	case KindSphere:
		n := safeNormalize(dir)
		return n.Mul(s.Radius)
	case KindCapsule:
		n := safeNormalize(dir)
		p := n.Mul(s.Radius)
		if dir[1] >= 0 {
			p[1] += s.HalfHeight
		} else {
			p[1] -= s.HalfHeight
		}
		return p
	case KindBox:
		return mgl64.Vec3{
			math.Copysign(s.HalfExtents[0], dir[0]),
			math.Copysign(s.HalfExtents[1], dir[1]),
			math.Copysign(s.HalfExtents[2], dir[2]),
		}
	case KindConvexHull:
		best := 0
		bestDot := math.Inf(-1)
		for i, v := range s.Vertices {
			if d := v.Dot(dir); d > bestDot {
				bestDot = d
				best = i
			}
		}
		return s.Vertices[best]
	}
	return mgl64.Vec3{}
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func verticesFinite(verts []mgl64.Vec3) bool {
	for _, v := range verts {
		for i := 0; i < 3; i++ {
			if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
				return false
			}
		}
	}
	return true
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl64.Vec3{1, 0, 0}
	}
	return v.Mul(1.0 / l)
}
