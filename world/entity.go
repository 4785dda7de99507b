package world

import (
	"math"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pressure/components"
)

// gradientOffset is one neighbor sampled by the motion rule, with the
// distance between the entity's cell and that neighbor precomputed.
type gradientOffset struct {
	dx, dy   int
	sx, sy   float32 // sign of dx, dy
	distance float32
}

// gradientOffsets holds the four diagonal neighbors, in row-major order.
// Axis-aligned neighbors do not contribute. Every distance is nonzero.
var gradientOffsets = buildGradientOffsets()

func buildGradientOffsets() []gradientOffset {
	var offs []gradientOffset
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 || dy == 0 {
				continue
			}
			offs = append(offs, gradientOffset{
				dx:       dx,
				dy:       dy,
				sx:       sign32(float32(dx)),
				sy:       sign32(float32(dy)),
				distance: float32(math.Sqrt(float64(dx*dx + dy*dy))),
			})
		}
	}
	return offs
}

func sign32(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// CellOf returns the grid cell containing a grid-space position,
// rounding each coordinate to the nearest cell: floor(v + 0.5).
func CellOf(pos components.Position) Point {
	return Point{
		X: int(math.Floor(float64(pos.X) + 0.5)),
		Y: int(math.Floor(float64(pos.Y) + 0.5)),
	}
}

// advance applies one tick of the motion rule to a single entity against g.
// Velocity accumulates the negative pressure derivative toward each diagonal
// neighbor, then the entity moves by velocity if the target cell is empty.
// Otherwise velocity is negated and position kept.
func advance(pos components.Position, vel components.Velocity, g *Grid) (components.Position, components.Velocity, bool) {
	from := CellOf(pos)
	fromValue := g.Pressure(from)
	for _, off := range gradientOffsets {
		toValue := g.Pressure(from.Add(Point{off.dx, off.dy}))
		delta := (toValue - fromValue) / off.distance
		vel.X += -off.sx * delta
		vel.Y += -off.sy * delta
	}

	to := components.Position{X: pos.X + vel.X, Y: pos.Y + vel.Y}
	if t, ok := g.At(CellOf(to)); ok && t.IsEmpty() {
		return to, vel, false
	}
	return pos, components.Velocity{X: -vel.X, Y: -vel.Y}, true
}

// Entity is a read-only snapshot of one pooled entity.
type Entity struct {
	Seq      uint32
	Position components.Position
	Velocity components.Velocity
	Bounces  uint32
}

// StepStats summarises one entity pass.
type StepStats struct {
	Moved   int
	Bounced int
}

// EntityPool owns the moving entities. Entities live in an ECS world, one
// entity per placement, and are never removed individually.
type EntityPool struct {
	world *ecs.World

	mapper *ecs.Map3[components.Position, components.Velocity, components.Particle]
	filter *ecs.Filter3[components.Position, components.Velocity, components.Particle]

	posMap  *ecs.Map1[components.Position]
	velMap  *ecs.Map1[components.Velocity]
	partMap *ecs.Map1[components.Particle]

	nextSeq uint32
	count   int

	parallel          *parallelState
	parallelThreshold int
}

// NewEntityPool creates an empty pool. The worker pool is used once the
// population reaches parallelThreshold (0 disables it); workers <= 0 means
// GOMAXPROCS.
func NewEntityPool(parallelThreshold, workers int) *EntityPool {
	w := ecs.NewWorld()
	return &EntityPool{
		world:             w,
		mapper:            ecs.NewMap3[components.Position, components.Velocity, components.Particle](w),
		filter:            ecs.NewFilter3[components.Position, components.Velocity, components.Particle](w),
		posMap:            ecs.NewMap1[components.Position](w),
		velMap:            ecs.NewMap1[components.Velocity](w),
		partMap:           ecs.NewMap1[components.Particle](w),
		parallel:          newParallelState(workers),
		parallelThreshold: parallelThreshold,
	}
}

// Place appends an entity at rest on the center offset of cell p.
func (p *EntityPool) Place(cell Point) {
	pos := components.Position{X: float32(cell.X) + 0.5, Y: float32(cell.Y) + 0.5}
	vel := components.Velocity{}
	part := components.Particle{Seq: p.nextSeq}
	p.mapper.NewEntity(&pos, &vel, &part)
	p.nextSeq++
	p.count++
}

// Len returns the number of entities.
func (p *EntityPool) Len() int { return p.count }

// Step moves every entity once against g, which must be the post-step field.
func (p *EntityPool) Step(g *Grid) StepStats {
	par := p.parallel

	// Phase A: snapshot (single-threaded, query order)
	par.jobs = par.jobs[:0]
	query := p.filter.Query()
	for query.Next() {
		pos, vel, _ := query.Get()
		par.jobs = append(par.jobs, motionJob{entity: query.Entity(), pos: *pos, vel: *vel})
	}

	n := len(par.jobs)
	if n == 0 {
		return StepStats{}
	}
	if cap(par.results) < n {
		par.results = make([]motionResult, n)
	}
	par.results = par.results[:n]

	// Phase B: compute
	if p.parallelThreshold > 0 && n >= p.parallelThreshold && par.numWorkers > 1 {
		par.computeParallel(g, n)
	} else {
		par.computeChunk(g, 0, n)
	}

	// Phase C: apply
	var stats StepStats
	for i, job := range par.jobs {
		res := &par.results[i]
		*p.posMap.Get(job.entity) = res.pos
		*p.velMap.Get(job.entity) = res.vel
		if res.bounced {
			p.partMap.Get(job.entity).Bounces++
			stats.Bounced++
		} else {
			stats.Moved++
		}
	}
	return stats
}

// Entities returns a snapshot of every entity ordered by placement.
func (p *EntityPool) Entities() []Entity {
	out := make([]Entity, 0, p.count)
	query := p.filter.Query()
	for query.Next() {
		pos, vel, part := query.Get()
		out = append(out, Entity{Seq: part.Seq, Position: *pos, Velocity: *vel, Bounces: part.Bounces})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Clear removes every entity.
func (p *EntityPool) Clear() {
	var doomed []ecs.Entity
	query := p.filter.Query()
	for query.Next() {
		doomed = append(doomed, query.Entity())
	}
	for _, e := range doomed {
		p.world.RemoveEntity(e)
	}
	p.count = 0
}

// Close stops the worker goroutines, if any were started.
func (p *EntityPool) Close() {
	p.parallel.stopWorkers()
}
