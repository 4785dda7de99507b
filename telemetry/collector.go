package telemetry

import "github.com/pthm-cable/pressure/world"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks int64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	ticks          int
	moves          int
	bounces        int
	cellsPainted   int
	entitiesPlaced int
}

// NewCollector creates a new stats collector with windows of windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// RecordStep records the entity outcome of one tick.
func (c *Collector) RecordStep(s world.StepStats) {
	c.ticks++
	c.moves += s.Moved
	c.bounces += s.Bounced
}

// RecordPaint records cells written by a brush.
func (c *Collector) RecordPaint(cells int) {
	c.cellsPainted += cells
}

// RecordPlacement records an entity placement.
func (c *Collector) RecordPlacement() {
	c.entitiesPlaced++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats from the window counters and the current
// state of w, then resets counters for the next window.
func (c *Collector) Flush(currentTick int64, w *world.World) WindowStats {
	var bounceRate float64
	if total := c.moves + c.bounces; total > 0 {
		bounceRate = float64(c.bounces) / float64(total)
	}

	entities := w.Entities()
	speedMean, speedP50, speedP90, speedMax := ComputeSpeedStats(entities)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Ticks:           c.ticks,

		Entities:       len(entities),
		Moves:          c.moves,
		Bounces:        c.bounces,
		BounceRate:     bounceRate,
		CellsPainted:   c.cellsPainted,
		EntitiesPlaced: c.entitiesPlaced,

		FieldStats: ComputeFieldStats(w.Grid()),

		SpeedMean: speedMean,
		SpeedP50:  speedP50,
		SpeedP90:  speedP90,
		SpeedMax:  speedMax,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.moves = 0
	c.bounces = 0
	c.cellsPainted = 0
	c.entitiesPlaced = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
