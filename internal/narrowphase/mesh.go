package narrowphase

import (
	"sort"

	"github.com/Style3D/block/internal/contact"
	"github.com/Style3D/block/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// meshManifoldCap bounds the number of contacts a mesh-involving pair may
// emit. The deepest points are kept; the rest are redundant for a
// penetration solve.
const meshManifoldCap = 4

// triPrimitive wraps one world-space triangle as a support-mapped
// primitive so that it can be fed through GJK/EPA.
func triPrimitive(v0, v1, v2 mgl64.Vec3) geom.Primitive {
	centroid := v0.Add(v1).Add(v2).Mul(1.0 / 3.0)
	return geom.Primitive{
		Shape: geom.Shape{
			Kind:     geom.KindConvexHull,
			Vertices: []mgl64.Vec3{v0.Sub(centroid), v1.Sub(centroid), v2.Sub(centroid)},
		},
		Transform: geom.TransformAt(centroid),
	}
}

func triBounds(v0, v1, v2 mgl64.Vec3) geom.Aabb {
	return geom.EmptyAabb().ExpandPoint(v0).ExpandPoint(v1).ExpandPoint(v2)
}

// convexMesh tests a convex primitive (first) against a mesh (second),
// triangle by triangle with a bounding-box early reject before any
// per-triangle work.
func convexMesh(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	convexBounds := a.Bounds()
	start := len(out)

	for t := range b.Shape.Triangles {
		v0, v1, v2 := b.TriangleWorld(t)
		if !triBounds(v0, v1, v2).Overlaps(convexBounds) {
			continue
		}
		tri := triPrimitive(v0, v1, v2)
		before := len(out)
		// The triangle stands in for the mesh on the "b" side, so normals
		// come out pointing from the mesh toward the convex shape.
		out = convexConvex(a, &tri, out)
		for i := before; i < len(out); i++ {
			out[i].Feature = uint32(t)<<4 | (out[i].Feature & 0xF)
		}
	}
	return capManifold(out, start)
}

// meshMesh tests two meshes by enumerating triangle pairs whose boxes
// overlap. Quadratic in the worst case; the pair-level AABB gate in the
// broad phase keeps this off the hot path for separated meshes.
func meshMesh(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	boundsB := b.Bounds()
	start := len(out)

	for ta := range a.Shape.Triangles {
		a0, a1, a2 := a.TriangleWorld(ta)
		ba := triBounds(a0, a1, a2)
		if !ba.Overlaps(boundsB) {
			continue
		}
		triA := triPrimitive(a0, a1, a2)

		for tb := range b.Shape.Triangles {
			b0, b1, b2 := b.TriangleWorld(tb)
			if !ba.Overlaps(triBounds(b0, b1, b2)) {
				continue
			}
			triB := triPrimitive(b0, b1, b2)
			before := len(out)
			out = convexConvex(&triA, &triB, out)
			for i := before; i < len(out); i++ {
				out[i].Feature = uint32(ta)<<16 | uint32(tb)
			}
		}
	}
	return capManifold(out, start)
}

// capManifold trims out[start:] down to the deepest meshManifoldCap
// contacts, preserving feature order for determinism.
func capManifold(out []contact.Contact, start int) []contact.Contact {
	manifold := out[start:]
	if len(manifold) <= meshManifoldCap {
		return out
	}
	sort.SliceStable(manifold, func(i, j int) bool {
		return manifold[i].Depth > manifold[j].Depth
	})
	manifold = manifold[:meshManifoldCap]
	sort.SliceStable(manifold, func(i, j int) bool {
		return manifold[i].Feature < manifold[j].Feature
	})
	return out[:start+meshManifoldCap]
}
