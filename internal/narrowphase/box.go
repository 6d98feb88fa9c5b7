package narrowphase

import (
	"math"
	"sort"

	"github.com/Style3D/block/internal/contact"
	"github.com/Style3D/block/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// boxFrame caches a box's world-space placement for the SAT test.
type boxFrame struct {
	center mgl64.Vec3
	axes   [3]mgl64.Vec3 // unit world axes
	half   mgl64.Vec3
}

func newBoxFrame(p *geom.Primitive) boxFrame {
	rot := p.Transform.Orientation.Mat4().Mat3()
	return boxFrame{
		center: p.Transform.Position,
		axes: [3]mgl64.Vec3{
			{rot.At(0, 0), rot.At(1, 0), rot.At(2, 0)},
			{rot.At(0, 1), rot.At(1, 1), rot.At(2, 1)},
			{rot.At(0, 2), rot.At(1, 2), rot.At(2, 2)},
		},
		half: p.Shape.HalfExtents,
	}
}

// extentAlong is the projection radius of the box onto unit axis l.
func (b *boxFrame) extentAlong(l mgl64.Vec3) float64 {
	return b.half[0]*math.Abs(b.axes[0].Dot(l)) +
		b.half[1]*math.Abs(b.axes[1].Dot(l)) +
		b.half[2]*math.Abs(b.axes[2].Dot(l))
}

// boxBox tests two boxes with the separating axis theorem and builds a
// clipped face manifold of up to four points, or a single point for
// edge-edge configurations.
func boxBox(a, b *geom.Primitive, out []contact.Contact) []contact.Contact {
	fa := newBoxFrame(a)
	fb := newBoxFrame(b)
	d := fa.center.Sub(fb.center) // from B to A

	const (
		// Edge axes must beat the best face axis by a margin before they
		// are preferred; face manifolds are worth the bias.
		faceBias = 0.99
		eps      = 1e-12
	)

	type axisResult struct {
		normal mgl64.Vec3 // unit, oriented from B to A
		pen    float64
		kind   int // 0: A face, 1: B face, 2: edge
		ia, ib int
	}
	best := axisResult{pen: math.Inf(1), kind: -1}
	bestEdge := axisResult{pen: math.Inf(1), kind: -1}

	testAxis := func(l mgl64.Vec3, kind, ia, ib int) bool {
		len2 := l.Dot(l)
		if len2 < eps {
			return true // degenerate axis, skip
		}
		l = l.Mul(1 / math.Sqrt(len2))
		dist := d.Dot(l)
		pen := fa.extentAlong(l) + fb.extentAlong(l) - math.Abs(dist)
		if pen < 0 {
			return false // separating axis
		}
		if dist < 0 {
			l = l.Mul(-1)
		}
		r := axisResult{normal: l, pen: pen, kind: kind, ia: ia, ib: ib}
		if kind == 2 {
			if pen < bestEdge.pen {
				bestEdge = r
			}
		} else if pen < best.pen {
			best = r
		}
		return true
	}

	for i := 0; i < 3; i++ {
		if !testAxis(fa.axes[i], 0, i, -1) {
			return out
		}
	}
	for i := 0; i < 3; i++ {
		if !testAxis(fb.axes[i], 1, -1, i) {
			return out
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !testAxis(fa.axes[i].Cross(fb.axes[j]), 2, i, j) {
				return out
			}
		}
	}

	if bestEdge.kind == 2 && bestEdge.pen < faceBias*best.pen {
		return boxBoxEdgeContact(&fa, &fb, bestEdge.normal, bestEdge.pen, bestEdge.ia, bestEdge.ib, out)
	}
	if best.kind < 0 {
		return out
	}
	return boxBoxFaceContact(&fa, &fb, best.normal, best.kind == 0, out)
}

// boxBoxEdgeContact emits the single contact of an edge-edge crossing.
func boxBoxEdgeContact(fa, fb *boxFrame, normal mgl64.Vec3, pen float64, ia, ib int, out []contact.Contact) []contact.Contact {
	// Supporting edge of A along -normal, of B along +normal.
	edgeOf := func(f *boxFrame, axisIdx int, dir mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
		mid := f.center
		for i := 0; i < 3; i++ {
			if i == axisIdx {
				continue
			}
			mid = mid.Add(f.axes[i].Mul(math.Copysign(f.half[i], f.axes[i].Dot(dir))))
		}
		e := f.axes[axisIdx].Mul(f.half[axisIdx])
		return mid.Sub(e), mid.Add(e)
	}

	a0, a1 := edgeOf(fa, ia, normal.Mul(-1))
	b0, b1 := edgeOf(fb, ib, normal)
	pa, pb, _, _ := closestSegmentSegment(a0, a1, b0, b1)

	return append(out, contact.Contact{
		Position: pa.Add(pb).Mul(0.5),
		Normal:   normal,
		Depth:    pen,
		Feature:  0x80 | uint32(ia)<<2 | uint32(ib),
	})
}

// boxBoxFaceContact clips the incident face of one box against the
// reference face of the other and emits the surviving points.
func boxBoxFaceContact(fa, fb *boxFrame, normal mgl64.Vec3, refIsA bool, out []contact.Contact) []contact.Contact {
	ref, inc := fa, fb
	// The reference face faces the other box: for A that is the face with
	// outward normal -n (n points from B to A), for B the face along +n.
	refDir := normal.Mul(-1)
	incDir := normal
	if !refIsA {
		ref, inc = fb, fa
		refDir = normal
		incDir = normal.Mul(-1)
	}

	// Reference face axis: the box axis most aligned with refDir.
	refAxis, _ := dominantAxis(ref, refDir)
	// Incident face: the face of inc facing the reference box.
	incAxis, incSign := dominantAxis(inc, incDir)

	// Corners of the incident face.
	u, v := (incAxis+1)%3, (incAxis+2)%3
	faceCenter := inc.center.Add(inc.axes[incAxis].Mul(incSign * inc.half[incAxis]))
	du := inc.axes[u].Mul(inc.half[u])
	dv := inc.axes[v].Mul(inc.half[v])
	poly := []mgl64.Vec3{
		faceCenter.Add(du).Add(dv),
		faceCenter.Add(du).Sub(dv),
		faceCenter.Sub(du).Sub(dv),
		faceCenter.Sub(du).Add(dv),
	}

	// Clip against the four side planes of the reference face.
	ru, rv := (refAxis+1)%3, (refAxis+2)%3
	for _, side := range [4]struct {
		n mgl64.Vec3
		h float64
	}{
		{ref.axes[ru], ref.half[ru]},
		{ref.axes[ru].Mul(-1), ref.half[ru]},
		{ref.axes[rv], ref.half[rv]},
		{ref.axes[rv].Mul(-1), ref.half[rv]},
	} {
		limit := side.n.Dot(ref.center) + side.h
		poly = clipPlane(poly, side.n, limit)
		if len(poly) == 0 {
			return out
		}
	}

	// Keep points at or below the reference face plane.
	refPlane := refDir.Dot(ref.center) + ref.half[refAxis]
	type cand struct {
		p     mgl64.Vec3
		depth float64
		slot  int
	}
	cands := make([]cand, 0, len(poly))
	for i, p := range poly {
		depth := refPlane - refDir.Dot(p)
		if depth >= 0 {
			cands = append(cands, cand{p: p, depth: depth, slot: i})
		}
	}
	if len(cands) > 4 {
		sort.Slice(cands, func(i, j int) bool { return cands[i].depth > cands[j].depth })
		cands = cands[:4]
		sort.Slice(cands, func(i, j int) bool { return cands[i].slot < cands[j].slot })
	}

	base := uint32(refAxis)<<2 | uint32(incAxis)
	if refIsA {
		base |= 0x40
	}
	for _, c := range cands {
		// Midpoint between the incident point and its projection onto
		// the reference face.
		pos := c.p.Add(refDir.Mul(c.depth * 0.5))
		out = append(out, contact.Contact{
			Position: pos,
			Normal:   normal,
			Depth:    c.depth,
			Feature:  uint32(c.slot)<<8 | base,
		})
	}
	return out
}

func dominantAxis(f *boxFrame, dir mgl64.Vec3) (int, float64) {
	axis, sign, best := 0, 1.0, math.Inf(-1)
	for i := 0; i < 3; i++ {
		d := f.axes[i].Dot(dir)
		if math.Abs(d) > best {
			best = math.Abs(d)
			axis = i
			sign = math.Copysign(1, d)
		}
	}
	return axis, sign
}

// clipPlane clips a convex polygon to the half-space n·x <= limit.
func clipPlane(poly []mgl64.Vec3, n mgl64.Vec3, limit float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(poly)+1)
	for i := range poly {
		cur := poly[i]
		next := poly[(i+1)%len(poly)]
		curIn := n.Dot(cur) <= limit
		nextIn := n.Dot(next) <= limit

		if curIn {
			out = append(out, cur)
		}
		if curIn != nextIn {
			t := (limit - n.Dot(cur)) / (n.Dot(next) - n.Dot(cur))
			out = append(out, cur.Add(next.Sub(cur).Mul(t)))
		}
	}
	return out
}
