// Package components defines ECS components for the simulation.
package components

import "math"

// Position represents an entity's position in grid space.
// Cell (x, y) spans [x-0.5, x+0.5) on each axis.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity in cells per tick.
type Velocity struct {
	X, Y float32
}

// Particle holds per-entity bookkeeping.
type Particle struct {
	Seq     uint32 // insertion order, stable for the life of the pool
	Bounces uint32 // total bounces since placement
}

// Speed returns the velocity magnitude.
func (v Velocity) Speed() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}
