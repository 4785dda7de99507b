// Package world implements the pressure field simulation: a bordered tile
// grid advanced by a 3x3 averaging rule, and a pool of point entities that
// move down the pressure gradient and bounce off non-empty tiles.
package world

import "fmt"

// TileKind identifies which variant a Tile holds.
type TileKind uint8

const (
	KindEmpty TileKind = iota // carries a pressure value
	KindWall                  // impassable, ignored by averaging
	KindDrain                 // pressure sink, impassable to entities
)

// String returns the config name of the kind.
func (k TileKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindWall:
		return "wall"
	case KindDrain:
		return "drain"
	}
	return fmt.Sprintf("TileKind(%d)", uint8(k))
}

// ParseTileKind maps a config name to a TileKind.
func ParseTileKind(name string) (TileKind, error) {
	switch name {
	case "empty":
		return KindEmpty, nil
	case "wall":
		return KindWall, nil
	case "drain":
		return KindDrain, nil
	}
	return 0, fmt.Errorf("unknown tile kind %q", name)
}

// Tile is the state of one grid cell. Value is only meaningful for KindEmpty
// and is kept at zero for the other kinds so tiles compare with ==.
type Tile struct {
	Kind  TileKind
	Value float32
}

// Empty returns an empty tile holding pressure v.
func Empty(v float32) Tile { return Tile{Kind: KindEmpty, Value: v} }

// Wall returns a wall tile.
func Wall() Tile { return Tile{Kind: KindWall} }

// Drain returns a drain tile.
func Drain() Tile { return Tile{Kind: KindDrain} }

// NewTile builds a tile of the given kind. v is dropped unless kind is KindEmpty.
func NewTile(kind TileKind, v float32) Tile {
	if kind == KindEmpty {
		return Empty(v)
	}
	return Tile{Kind: kind}
}

// IsEmpty reports whether entities may occupy the tile.
func (t Tile) IsEmpty() bool { return t.Kind == KindEmpty }

// Pressure is the value an entity perceives on this tile: the stored value
// for empty tiles, zero for everything else.
func (t Tile) Pressure() float32 {
	if t.Kind == KindEmpty {
		return t.Value
	}
	return 0
}

func (t Tile) String() string {
	if t.Kind == KindEmpty {
		return fmt.Sprintf("empty(%g)", t.Value)
	}
	return t.Kind.String()
}

// Point is a signed integer grid coordinate.
type Point struct {
	X, Y int
}

// Add returns p offset by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
