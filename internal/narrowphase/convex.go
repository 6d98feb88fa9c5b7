package narrowphase

import (
	"math"

	"github.com/Style3D/block/internal/contact"
	"github.com/Style3D/block/internal/geom"
)

// convexConvex is the generic support-mapped pair test used for every
// convex combination without a dedicated closed-form routine. GJK decides
// overlap; EPA recovers depth, normal, and witness points.
func convexConvex(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	var s simplex
	if !gjk(a, b, &s) {
		return out
	}

	var res epaResult
	if !epa(a, b, &s, &res) {
		// Fully degenerate configuration (e.g. identical shapes at the
		// same transform). Emit a stable fallback contact instead of
		// failing so the solver still sees the overlap.
		return append(out, contact.Contact{
			Position: a.Transform.Position.Add(b.Transform.Position).Mul(0.5),
			Normal:   fallbackAxis,
			Depth:    minExtent(a) + minExtent(b),
			Feature:  0xFFFF,
		})
	}

	return append(out, contact.Contact{
		Position: res.onA.Add(res.onB).Mul(0.5),
		Normal:   res.normal,
		Depth:    res.depth,
		Feature:  0,
	})
}

// minExtent is a crude lower bound on a shape's size, used only to give
// the degenerate fallback contact a plausible depth.
func minExtent(p *geom.Primitive) float64 {
	switch p.Shape.Kind {
	case geom.KindSphere, geom.KindCapsule:
		return p.Shape.Radius
	case geom.KindBox:
		return math.Min(p.Shape.HalfExtents[0],
			math.Min(p.Shape.HalfExtents[1], p.Shape.HalfExtents[2]))
	default:
		box := p.Bounds()
		d := box.Upper.Sub(box.Lower)
		return 0.5 * math.Min(d[0], math.Min(d[1], d[2]))
	}
}
