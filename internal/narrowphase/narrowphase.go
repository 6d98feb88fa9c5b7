// Package narrowphase generates contact manifolds for candidate pairs
// coming out of the broad phase. Each supported kind combination has a
// dedicated pair test; everything convex that lacks a closed-form test
// falls through to GJK/EPA.
package narrowphase

import (
	"github.com/Style3D/block/internal/contact"
	"github.com/Style3D/block/internal/geom"
)

// pairTest appends zero or more contacts for the primitives a and b.
// Implementations fill Position, Normal, Depth and Feature, with the
// normal pointing from b toward a. Index stamping is left to the caller.
type pairTest func(a, b *geom.Primitive, out []contact.Contact) []contact.Contact

// pairTable is indexed by (Kind, Kind) with the first kind never greater
// than the second. Dispatch swaps arguments and flips normals when the
// incoming pair arrives in the opposite kind order.
var pairTable [geom.NumKinds][geom.NumKinds]pairTest

func init() {
	register := func(ka, kb geom.Kind, fn pairTest) {
		pairTable[ka][kb] = fn
	}

	register(geom.KindSphere, geom.KindSphere, sphereSphere)
	register(geom.KindSphere, geom.KindCapsule, sphereCapsule)
	register(geom.KindSphere, geom.KindBox, sphereBox)
	register(geom.KindSphere, geom.KindConvexHull, convexConvex)
	register(geom.KindSphere, geom.KindMesh, convexMesh)

	register(geom.KindCapsule, geom.KindCapsule, capsuleCapsule)
	register(geom.KindCapsule, geom.KindBox, convexConvex)
	register(geom.KindCapsule, geom.KindConvexHull, convexConvex)
	register(geom.KindCapsule, geom.KindMesh, convexMesh)

	register(geom.KindBox, geom.KindBox, boxBox)
	register(geom.KindBox, geom.KindConvexHull, convexConvex)
	register(geom.KindBox, geom.KindMesh, convexMesh)

	register(geom.KindConvexHull, geom.KindConvexHull, convexConvex)
	register(geom.KindConvexHull, geom.KindMesh, convexMesh)

	register(geom.KindMesh, geom.KindMesh, meshMesh)
}

// TestPair runs the narrow-phase test for the primitives at indices ia
// and ib, appending the resulting contacts to out. ia must be less than
// ib. Contacts carry the pair indices and a normal pointing from the
// second primitive toward the first. Primitives with degenerate geometry
// or a non-finite transform produce no contacts.
func TestPair(prims []geom.Primitive, ia, ib int32, out []contact.Contact) []contact.Contact {
	pa, pb := &prims[ia], &prims[ib]
	if !pa.IsValid() || !pb.IsValid() {
		return out
	}

	ka, kb := pa.Shape.Kind, pb.Shape.Kind
	flipped := ka > kb
	if flipped {
		pa, pb = pb, pa
		ka, kb = kb, ka
	}
	fn := pairTable[ka][kb]
	if fn == nil {
		return out
	}

	start := len(out)
	out = fn(pa, pb, out)
	for i := start; i < len(out); i++ {
		if flipped {
			out[i].Normal = out[i].Normal.Mul(-1)
		}
		out[i].IndexA = ia
		out[i].IndexB = ib
	}
	return out
}
