// Package telemetry provides window statistics, bookmarks, perf timing and CSV run output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/pressure/world"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`
	Ticks           int   `csv:"ticks"`

	// Entity activity during the window
	Entities       int     `csv:"entities"`
	Moves          int     `csv:"moves"`
	Bounces        int     `csv:"bounces"`
	BounceRate     float64 `csv:"bounce_rate"`
	CellsPainted   int     `csv:"cells_painted"`
	EntitiesPlaced int     `csv:"entities_placed"`

	// Field state at window end
	FieldStats

	// Entity speeds at window end
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`
}

// FieldStats summarises the pressure field. Pressure statistics cover empty
// tiles only.
type FieldStats struct {
	PressureMean  float64 `csv:"pressure_mean"`
	PressureStd   float64 `csv:"pressure_std"`
	PressureMin   float64 `csv:"pressure_min"`
	PressureMax   float64 `csv:"pressure_max"`
	PressureTotal float64 `csv:"pressure_total"`

	Empty  int `csv:"empty"`
	Walls  int `csv:"walls"`
	Drains int `csv:"drains"`
}

// ComputeFieldStats summarises the current field of g.
func ComputeFieldStats(g *world.Grid) FieldStats {
	counts := g.CountKinds()
	fs := FieldStats{
		Empty:  counts.Empty,
		Walls:  counts.Wall,
		Drains: counts.Drain,
	}

	values := g.EmptyValues(make([]float64, 0, counts.Empty))
	if len(values) == 0 {
		return fs
	}

	if len(values) > 1 {
		fs.PressureMean, fs.PressureStd = stat.MeanStdDev(values, nil)
	} else {
		fs.PressureMean = values[0]
	}
	fs.PressureMin = floats.Min(values)
	fs.PressureMax = floats.Max(values)
	fs.PressureTotal = floats.Sum(values)
	return fs
}

// Percentile returns the empirical p-quantile of sorted: the smallest value
// with at least a fraction p of samples at or below it. p should be in [0, 1].
// Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSpeedStats calculates mean, median, p90 and max of entity speeds.
func ComputeSpeedStats(entities []world.Entity) (mean, p50, p90, max float64) {
	n := len(entities)
	if n == 0 {
		return 0, 0, 0, 0
	}

	speeds := make([]float64, n)
	for i, e := range entities {
		speeds[i] = float64(e.Velocity.Speed())
	}
	sort.Float64s(speeds)

	mean = stat.Mean(speeds, nil)
	p50 = Percentile(speeds, 0.50)
	p90 = Percentile(speeds, 0.90)
	max = speeds[n-1]

	return mean, p50, p90, max
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("ticks", s.Ticks),
		slog.Int("entities", s.Entities),
		slog.Int("moves", s.Moves),
		slog.Int("bounces", s.Bounces),
		slog.Float64("bounce_rate", s.BounceRate),
		slog.Int("cells_painted", s.CellsPainted),
		slog.Int("entities_placed", s.EntitiesPlaced),
		slog.Float64("pressure_mean", s.PressureMean),
		slog.Float64("pressure_std", s.PressureStd),
		slog.Float64("pressure_min", s.PressureMin),
		slog.Float64("pressure_max", s.PressureMax),
		slog.Float64("pressure_total", s.PressureTotal),
		slog.Int("walls", s.Walls),
		slog.Int("drains", s.Drains),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
	)
}
