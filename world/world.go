package world

// Options configures a World.
type Options struct {
	Width, Height int

	// ProtectBorder stops brushes from overwriting the wall border.
	ProtectBorder bool

	// ParallelThreshold is the entity count at which the entity pass moves
	// to the worker pool. 0 keeps it single-threaded.
	ParallelThreshold int
	Workers           int // 0 = GOMAXPROCS
}

// DefaultOptions returns the reference 300x200 single-threaded setup.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight}
}

// Phase names reported to the phase hook during Step.
const (
	PhaseGrid     = "grid"
	PhaseEntities = "entities"
)

// World aggregates the grid and the entity pool and steps them in order.
type World struct {
	grid     *Grid
	entities *EntityPool

	tick int64
	last StepStats

	phaseHook func(phase string)
}

// New builds a bordered all-empty grid and an empty pool.
func New(opts Options) *World {
	g := NewGrid(opts.Width, opts.Height)
	g.SetProtectBorder(opts.ProtectBorder)
	return &World{
		grid:     g,
		entities: NewEntityPool(opts.ParallelThreshold, opts.Workers),
	}
}

// NewDefault builds a World with DefaultOptions.
func NewDefault() *World {
	return New(DefaultOptions())
}

// Step advances one tick: the grid first, then entities against the new grid.
func (w *World) Step() {
	w.enterPhase(PhaseGrid)
	w.grid.Step()
	w.enterPhase(PhaseEntities)
	w.last = w.entities.Step(w.grid)
	w.tick++
}

// SetPhaseHook registers fn to be called as each phase of Step begins.
func (w *World) SetPhaseHook(fn func(phase string)) { w.phaseHook = fn }

func (w *World) enterPhase(phase string) {
	if w.phaseHook != nil {
		w.phaseHook(phase)
	}
}

// Tick returns the number of completed steps.
func (w *World) Tick() int64 { return w.tick }

// LastStep returns the entity stats of the most recent Step.
func (w *World) LastStep() StepStats { return w.last }

// At returns the tile at p, or false outside the grid.
func (w *World) At(p Point) (Tile, bool) { return w.grid.At(p) }

// AtMut returns a pointer to the tile at p, or nil outside the grid.
func (w *World) AtMut(p Point) *Tile { return w.grid.AtMut(p) }

// Brush paints a disc of tiles and returns how many cells were written.
func (w *World) Brush(tile Tile, center Point, radius float32) int {
	return w.grid.Brush(tile, center, radius)
}

// PlaceEntity adds one entity at rest on cell p.
func (w *World) PlaceEntity(p Point) { w.entities.Place(p) }

// Entities returns a snapshot of all entities in placement order.
func (w *World) Entities() []Entity { return w.entities.Entities() }

// EntityCount returns the number of entities.
func (w *World) EntityCount() int { return w.entities.Len() }

// ClearEntities removes every entity.
func (w *World) ClearEntities() { w.entities.Clear() }

// Grid returns the live grid, not a copy. Changes made through it are seen by
// the next Step. Dimensions are fixed at construction.
func (w *World) Grid() *Grid { return w.grid }

// Close releases the entity worker pool.
func (w *World) Close() { w.entities.Close() }
