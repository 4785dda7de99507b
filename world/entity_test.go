package world

import (
	"math"
	"testing"

	"github.com/pthm-cable/pressure/components"
)

const invSqrt2 = float32(1 / math.Sqrt2)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestGradientOffsetsAreDiagonal(t *testing.T) {
	if len(gradientOffsets) != 4 {
		t.Fatalf("expected 4 offsets, got %d", len(gradientOffsets))
	}
	for _, off := range gradientOffsets {
		if off.dx == 0 || off.dy == 0 {
			t.Errorf("axis-aligned offset (%d,%d) should be skipped", off.dx, off.dy)
		}
		if off.distance != float32(math.Sqrt2) {
			t.Errorf("offset (%d,%d) distance %v, want sqrt(2)", off.dx, off.dy, off.distance)
		}
	}
}

func TestCellOf(t *testing.T) {
	tests := []struct {
		pos  components.Position
		want Point
	}{
		{components.Position{X: 4.0, Y: 4.0}, Point{4, 4}},
		{components.Position{X: 4.49, Y: 3.6}, Point{4, 4}},
		{components.Position{X: 10.5, Y: 10.5}, Point{11, 11}},
		{components.Position{X: -0.4, Y: -0.6}, Point{0, -1}},
	}
	for _, tt := range tests {
		if got := CellOf(tt.pos); got != tt.want {
			t.Errorf("CellOf(%+v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestAdvanceDownGradient(t *testing.T) {
	g := NewGrid(10, 10)
	*g.AtMut(Point{5, 5}) = Empty(1)

	pos, vel, bounced := advance(components.Position{X: 4, Y: 4}, components.Velocity{}, g)

	if bounced {
		t.Fatal("unexpected bounce")
	}
	// Higher pressure to the south-east pushes north-west.
	if !approx(vel.X, -invSqrt2) || !approx(vel.Y, -invSqrt2) {
		t.Errorf("velocity = %+v, want (-1/sqrt2, -1/sqrt2)", vel)
	}
	if !approx(pos.X, 4-invSqrt2) || !approx(pos.Y, 4-invSqrt2) {
		t.Errorf("position = %+v", pos)
	}
}

func TestAdvanceIgnoresAxisNeighbors(t *testing.T) {
	g := NewGrid(10, 10)
	*g.AtMut(Point{5, 4}) = Empty(3)
	*g.AtMut(Point{4, 3}) = Empty(-2)

	pos, vel, bounced := advance(components.Position{X: 4, Y: 4}, components.Velocity{}, g)

	if bounced || vel != (components.Velocity{}) || pos != (components.Position{X: 4, Y: 4}) {
		t.Errorf("axis neighbors should not move the entity: pos=%+v vel=%+v bounced=%v", pos, vel, bounced)
	}
}

func TestAdvanceFromNonEmptyCellReadsZero(t *testing.T) {
	g := NewGrid(10, 10)
	*g.AtMut(Point{4, 4}) = Drain()
	*g.AtMut(Point{3, 3}) = Empty(2)

	_, vel, _ := advance(components.Position{X: 4, Y: 4}, components.Velocity{}, g)

	// from = 0, one diagonal at 2 to the north-west pushes south-east.
	want := 2 * invSqrt2
	if !approx(vel.X, want) || !approx(vel.Y, want) {
		t.Errorf("velocity = %+v, want (%v, %v)", vel, want, want)
	}
}

func TestAdvanceBounce(t *testing.T) {
	tests := []struct {
		name   string
		target Tile
	}{
		{"wall", Wall()},
		{"drain", Drain()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(10, 10)
			*g.AtMut(Point{5, 5}) = tt.target

			start := components.Position{X: 4, Y: 4}
			pos, vel, bounced := advance(start, components.Velocity{X: 1, Y: 0.5}, g)

			if !bounced {
				t.Fatal("expected bounce")
			}
			if pos != start {
				t.Errorf("position moved to %+v on bounce", pos)
			}
			if vel != (components.Velocity{X: -1, Y: -0.5}) {
				t.Errorf("velocity = %+v, want (-1, -0.5)", vel)
			}
		})
	}
}

func TestAdvanceOffGridBounces(t *testing.T) {
	g := NewGrid(10, 10)
	// Open the border so the only obstacle is the grid edge.
	g.Brush(Empty(0), Point{9, 5}, 0)

	start := components.Position{X: 8, Y: 5}
	pos, vel, bounced := advance(start, components.Velocity{X: 3, Y: 0}, g)
	if !bounced || pos != start || vel.X != -3 {
		t.Errorf("expected off-grid bounce, got pos=%+v vel=%+v bounced=%v", pos, vel, bounced)
	}
}

func TestPlaceEntity(t *testing.T) {
	p := NewEntityPool(0, 1)
	defer p.Close()

	p.Place(Point{10, 10})

	ents := p.Entities()
	if len(ents) != 1 || p.Len() != 1 {
		t.Fatalf("expected 1 entity, got %d (Len %d)", len(ents), p.Len())
	}
	e := ents[0]
	if e.Position != (components.Position{X: 10.5, Y: 10.5}) {
		t.Errorf("position = %+v, want (10.5, 10.5)", e.Position)
	}
	if e.Velocity != (components.Velocity{}) {
		t.Errorf("velocity = %+v, want zero", e.Velocity)
	}
}

func TestPoolStepBounceStats(t *testing.T) {
	g := NewGrid(10, 10)
	p := NewEntityPool(0, 1)
	defer p.Close()

	// Cell (3,3) holds the entity; the south-east diagonal is high.
	p.Place(Point{2, 2})
	*g.AtMut(Point{4, 4}) = Empty(1)

	// First pass: pushed north-west into (2,2), which is empty.
	stats := p.Step(g)
	if stats.Moved != 1 || stats.Bounced != 0 {
		t.Fatalf("first step stats = %+v", stats)
	}

	// Wall in the way: the next move bounces.
	*g.AtMut(Point{4, 4}) = Empty(0)
	before := p.Entities()[0]
	g.Brush(Wall(), CellOf(components.Position{
		X: before.Position.X + before.Velocity.X,
		Y: before.Position.Y + before.Velocity.Y,
	}), 0)

	stats = p.Step(g)
	after := p.Entities()[0]
	if stats.Bounced != 1 {
		t.Fatalf("expected a bounce, got %+v", stats)
	}
	if after.Position != before.Position {
		t.Errorf("bounced entity moved from %+v to %+v", before.Position, after.Position)
	}
	if after.Bounces != 1 {
		t.Errorf("bounce counter = %d, want 1", after.Bounces)
	}
}

func TestPoolClearKeepsSequence(t *testing.T) {
	p := NewEntityPool(0, 1)
	defer p.Close()

	for i := 0; i < 3; i++ {
		p.Place(Point{5 + i, 5})
	}
	p.Clear()
	if p.Len() != 0 || len(p.Entities()) != 0 {
		t.Fatalf("expected empty pool after Clear, got %d", p.Len())
	}

	p.Place(Point{7, 7})
	ents := p.Entities()
	if len(ents) != 1 || ents[0].Seq != 3 {
		t.Errorf("expected one entity with seq 3, got %+v", ents)
	}
}

func TestPoolEntitiesInPlacementOrder(t *testing.T) {
	p := NewEntityPool(0, 1)
	defer p.Close()

	for i := 0; i < 20; i++ {
		p.Place(Point{i + 1, 20 - i})
	}
	for i, e := range p.Entities() {
		if e.Seq != uint32(i) {
			t.Fatalf("entity %d has seq %d", i, e.Seq)
		}
		if e.Position.X != float32(i+1)+0.5 {
			t.Fatalf("entity %d at %+v", i, e.Position)
		}
	}
}
