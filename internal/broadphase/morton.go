package broadphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// interleaveDoubleZero dilates the low 10 bits of v, inserting two zero
// bits after each, the building block of 3D Morton encoding.
func interleaveDoubleZero(v uint32) uint32 {
	v = (v | (v << 16)) & 0xFF0000FF
	v = (v | (v << 8)) & 0x0F00F00F
	v = (v | (v << 4)) & 0xC30C30C3
	v = (v | (v << 2)) & 0x49249249
	return v
}

// mortonEncode maps a point in [0,1)^3 to a 30-bit Z-order curve index.
// Each coordinate is quantized to 10 bits and the bits interleaved as
// x9 y9 z9 x8 y8 z8 ... x0 y0 z0.
func mortonEncode(p mgl64.Vec3) uint32 {
	const scale = float64(1 << 10)
	x := uint32(math.Min(math.Max(p[0]*scale, 0), scale-1))
	y := uint32(math.Min(math.Max(p[1]*scale, 0), scale-1))
	z := uint32(math.Min(math.Max(p[2]*scale, 0), scale-1))
	return interleaveDoubleZero(x)<<2 | interleaveDoubleZero(y)<<1 | interleaveDoubleZero(z)
}
