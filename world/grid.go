package world

import (
	"fmt"
	"math"
)

// Reference grid dimensions.
const (
	DefaultWidth  = 300
	DefaultHeight = 200
)

// Grid is a fixed-size field of tiles stored row-major, with a closed wall
// border. Step writes into a scratch buffer and swaps, so every cell update
// within one step reads the pre-step field only.
type Grid struct {
	w, h int

	tiles   []Tile
	scratch []Tile

	// protectBorder makes Brush skip border cells.
	protectBorder bool
}

// NewGrid allocates a w x h grid of Empty(0) with a wall border.
// Panics if either dimension is below 3: there would be no interior.
func NewGrid(w, h int) *Grid {
	if w < 3 || h < 3 {
		panic(fmt.Sprintf("world: grid must be at least 3x3, got %dx%d", w, h))
	}
	g := &Grid{
		w:       w,
		h:       h,
		tiles:   make([]Tile, w*h),
		scratch: make([]Tile, w*h),
	}
	for i := range g.tiles {
		g.tiles[i] = Empty(0)
	}
	g.buildBorder()
	return g
}

// buildBorder sets row 0, row h-1, column 0 and column w-1 to Wall.
func (g *Grid) buildBorder() {
	for x := 0; x < g.w; x++ {
		g.tiles[x] = Wall()
		g.tiles[(g.h-1)*g.w+x] = Wall()
	}
	for y := 0; y < g.h; y++ {
		g.tiles[y*g.w] = Wall()
		g.tiles[y*g.w+g.w-1] = Wall()
	}
}

// SetProtectBorder controls whether Brush may overwrite border cells.
func (g *Grid) SetProtectBorder(protect bool) { g.protectBorder = protect }

// Size returns the grid dimensions.
func (g *Grid) Size() (int, int) { return g.w, g.h }

// Contains reports whether p lies inside [0,w) x [0,h).
func (g *Grid) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.w && p.Y < g.h
}

// IsBorder reports whether p is on the outermost ring of the grid.
func (g *Grid) IsBorder(p Point) bool {
	if !g.Contains(p) {
		return false
	}
	return p.X == 0 || p.Y == 0 || p.X == g.w-1 || p.Y == g.h-1
}

// index returns the row-major slice index for p. Callers check bounds.
func (g *Grid) index(p Point) int { return p.Y*g.w + p.X }

// At returns the tile at p, or false if p is outside the grid.
func (g *Grid) At(p Point) (Tile, bool) {
	if !g.Contains(p) {
		return Tile{}, false
	}
	return g.tiles[g.index(p)], true
}

// AtMut returns a pointer to the tile at p, or nil if p is outside the grid.
// The pointer is invalidated by the next Step.
func (g *Grid) AtMut(p Point) *Tile {
	if !g.Contains(p) {
		return nil
	}
	return &g.tiles[g.index(p)]
}

// Pressure returns the pressure perceived at p: the value of an empty tile,
// zero for any other tile or for points outside the grid.
func (g *Grid) Pressure(p Point) float32 {
	t, ok := g.At(p)
	if !ok {
		return 0
	}
	return t.Pressure()
}

// Tiles exposes the current field row-major. Callers must not modify it.
func (g *Grid) Tiles() []Tile { return g.tiles }

// Step advances the field by one averaging pass.
func (g *Grid) Step() {
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			i := y*g.w + x
			g.scratch[i] = g.averageTile(x, y)
		}
	}
	g.tiles, g.scratch = g.scratch, g.tiles
}

// averageTile computes the next state of cell (x, y) from the current field.
// Walls and drains are copied. An empty cell becomes the mean over its
// in-bounds 3x3 block where walls are skipped and drains count as zero.
// The cell itself is always counted, so count >= 1.
func (g *Grid) averageTile(x, y int) Tile {
	t := g.tiles[y*g.w+x]
	if t.Kind != KindEmpty {
		return t
	}

	var sum float32
	var count int
	for ny := y - 1; ny <= y+1; ny++ {
		if ny < 0 || ny >= g.h {
			continue
		}
		row := ny * g.w
		for nx := x - 1; nx <= x+1; nx++ {
			if nx < 0 || nx >= g.w {
				continue
			}
			switch n := g.tiles[row+nx]; n.Kind {
			case KindEmpty:
				sum += n.Value
				count++
			case KindDrain:
				count++
			case KindWall:
			}
		}
	}
	return Empty(sum / float32(count))
}

// Brush overwrites every cell within Euclidean distance radius of center
// with tile and returns the number of cells written. Cells outside the grid
// are skipped, as are border cells when border protection is on.
func (g *Grid) Brush(tile Tile, center Point, radius float32) int {
	if radius < 0 || math.IsNaN(float64(radius)) {
		return 0
	}

	// Candidate square clipped to the grid. Bounds are clamped as floats so
	// huge or infinite radii never reach an out-of-range int conversion.
	rf := math.Ceil(float64(radius) + 0.5)
	cx, cy := float64(center.X), float64(center.Y)
	x0 := int(math.Max(cx-rf, 0))
	x1 := int(math.Min(cx+rf, float64(g.w-1)))
	y0 := int(math.Max(cy-rf, 0))
	y1 := int(math.Min(cy+rf, float64(g.h-1)))

	painted := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(center.X - x)
			dy := float64(center.Y - y)
			if float32(math.Sqrt(dx*dx+dy*dy)) > radius {
				continue
			}
			p := Point{x, y}
			if g.protectBorder && g.IsBorder(p) {
				continue
			}
			g.tiles[g.index(p)] = tile
			painted++
		}
	}
	return painted
}

// KindCounts tallies tiles by kind.
type KindCounts struct {
	Empty, Wall, Drain int
}

// CountKinds tallies the current field by tile kind.
func (g *Grid) CountKinds() KindCounts {
	var c KindCounts
	for _, t := range g.tiles {
		switch t.Kind {
		case KindEmpty:
			c.Empty++
		case KindWall:
			c.Wall++
		case KindDrain:
			c.Drain++
		}
	}
	return c
}

// EmptyValues appends the pressure of every empty tile to dst and returns it.
func (g *Grid) EmptyValues(dst []float64) []float64 {
	for _, t := range g.tiles {
		if t.Kind == KindEmpty {
			dst = append(dst, float64(t.Value))
		}
	}
	return dst
}
