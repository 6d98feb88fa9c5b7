// Package scene builds demo primitive sets for the CLI and the live
// view. All builders are deterministic: the same arguments always
// produce the same scene.
package scene

import (
	"math"
	"math/rand"

	"github.com/Style3D/block/internal/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// SphereGrid lays out an n×n×n lattice of spheres whose radius slightly
// exceeds half the spacing, so every lattice neighbor pair touches.
func SphereGrid(n int, spacing, radius float64) []geom.Primitive {
	prims := make([]geom.Primitive, 0, n*n*n)
	offset := -spacing * float64(n-1) / 2
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				at := mgl64.Vec3{
					offset + spacing*float64(x),
					offset + spacing*float64(y),
					offset + spacing*float64(z),
				}
				prims = append(prims, geom.Primitive{
					Shape:     geom.Sphere(radius),
					Transform: geom.TransformAt(at),
				})
			}
		}
	}
	return prims
}

// BoxStack builds a pyramid of unit boxes resting on a ground box, each
// layer overlapping the one below by a small margin.
func BoxStack(layers int) []geom.Primitive {
	prims := []geom.Primitive{{
		Shape:     geom.Box(float64(layers)+1, 0.5, float64(layers)+1),
		Transform: geom.TransformAt(mgl64.Vec3{0, -0.5, 0}),
	}}

	const half = 0.5
	const overlap = 0.02
	for layer := 0; layer < layers; layer++ {
		count := layers - layer
		y := half + float64(layer)*(2*half-overlap) - overlap
		rowOffset := -float64(count-1) * half
		for i := 0; i < count; i++ {
			at := mgl64.Vec3{rowOffset + float64(i)*2*half, y, 0}
			prims = append(prims, geom.Primitive{
				Shape:     geom.Box(half, half, half),
				Transform: geom.TransformAt(at),
			})
		}
	}
	return prims
}

// MixedPile scatters n primitives of alternating kinds inside a cube of
// the given half extent, seeded for reproducibility.
func MixedPile(n int, extent float64, seed int64) []geom.Primitive {
	rng := rand.New(rand.NewSource(seed))
	prims := make([]geom.Primitive, 0, n)
	for i := 0; i < n; i++ {
		at := mgl64.Vec3{
			(rng.Float64()*2 - 1) * extent,
			(rng.Float64()*2 - 1) * extent,
			(rng.Float64()*2 - 1) * extent,
		}
		var shape geom.Shape
		switch i % 3 {
		case 0:
			shape = geom.Sphere(0.4 + rng.Float64()*0.4)
		case 1:
			shape = geom.Box(0.3+rng.Float64()*0.3, 0.3+rng.Float64()*0.3, 0.3+rng.Float64()*0.3)
		default:
			shape = geom.Capsule(0.25+rng.Float64()*0.2, 0.3+rng.Float64()*0.3)
		}
		prims = append(prims, geom.Primitive{
			Shape:     shape,
			Transform: geom.TransformAt(at),
		})
	}
	return prims
}

// Oscillate moves every primitive of dst around its position in base on
// a per-index phase, keeping an animated scene deterministic in t.
// dst and base must be the same scene.
func Oscillate(dst, base []geom.Primitive, t, amplitude float64) {
	for i := range dst {
		phase := float64(i) * 2.399963 // golden angle spreads the phases
		offset := mgl64.Vec3{
			math.Sin(t+phase),
			math.Cos(t*0.7 + phase),
			math.Sin(t*1.3 + 2*phase),
		}.Mul(amplitude)
		dst[i].Transform.Position = base[i].Transform.Position.Add(offset)
	}
}

// Builders names the available demo scenes for the CLI.
func Builders() map[string]func() []geom.Primitive {
	return map[string]func() []geom.Primitive{
		"grid":  func() []geom.Primitive { return SphereGrid(4, 1.9, 1.0) },
		"stack": func() []geom.Primitive { return BoxStack(5) },
		"pile":  func() []geom.Primitive { return MixedPile(60, 3, 42) },
	}
}
