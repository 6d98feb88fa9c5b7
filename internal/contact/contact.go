package contact

import "github.com/go-gl/mathgl/mgl64"

// Contact is one narrow-phase contact point between the primitives at
// IndexA and IndexB (IndexA < IndexB).
type Contact struct {
	IndexA int32
	IndexB int32

	// Position is the contact point in world space.
	Position mgl64.Vec3

	// Normal is a unit vector pointing from B toward A.
	Normal mgl64.Vec3

	// Depth is positive when the shapes overlap.
	Depth float64

	// Feature identifies the contacting sub-features of the two shapes,
	// stable across steps for warm-start matching.
	Feature uint32

	// ordinal is the emission position within the pair's manifold, set by
	// the buffer so compaction has a total order.
	ordinal int32
}

// PairKey orders contacts by their canonical pair.
func (c *Contact) PairKey() uint64 {
	return uint64(uint32(c.IndexA))<<32 | uint64(uint32(c.IndexB))
}
