package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// SeedNoise fills every interior empty tile with amplitude * simplex(x*scale, y*scale).
// Border cells and non-empty tiles are left alone. amplitude 0 is a no-op.
func (g *Grid) SeedNoise(amplitude, scale float64, seed int64) {
	if amplitude == 0 {
		return
	}
	noise := opensimplex.New(seed)
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			i := y*g.w + x
			if g.tiles[i].Kind != KindEmpty {
				continue
			}
			v := noise.Eval2(float64(x)*scale, float64(y)*scale)
			g.tiles[i] = Empty(float32(amplitude * v))
		}
	}
}
