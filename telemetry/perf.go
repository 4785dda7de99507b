package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/pressure/world"
)

// Phase names for one session frame.
const (
	PhaseInput     = "input"
	PhaseGrid      = world.PhaseGrid
	PhaseEntities  = world.PhaseEntities
	PhaseTelemetry = "telemetry"
)

// phaseOrder is the order phases are reported in.
var phaseOrder = []string{PhaseInput, PhaseGrid, PhaseEntities, PhaseTelemetry}

// PerfSample is the timing of one session frame. A frame runs zero or more
// world ticks.
type PerfSample struct {
	FrameDuration time.Duration
	Ticks         int
	Phases        map[string]time.Duration
}

// PerfCollector tracks frame timing over a rolling window of frames and
// derives per-tick cost from the ticks each frame ran.
type PerfCollector struct {
	now func() time.Time

	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall time between consecutive StartFrame calls
	frameInterval time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		now:           time.Now,
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// SetClock replaces the time source.
func (p *PerfCollector) SetClock(now func() time.Time) { p.now = now }

// StartFrame begins timing a frame.
func (p *PerfCollector) StartFrame() {
	now := p.now()
	if !p.frameStart.IsZero() {
		p.frameInterval = now.Sub(p.frameStart)
	}
	p.frameStart = now
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame closes the running phase and records the frame, which ran ticks
// world ticks.
func (p *PerfCollector) EndFrame(ticks int) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Ticks:         ticks,
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Window contents
	Frames int
	Ticks  int

	// Frame timing (time spent inside Update)
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Grid plus entity time per world tick; zero when no tick ran
	AvgTickDuration time.Duration

	// Phase breakdown, averaged per frame
	PhaseAvg map[string]time.Duration

	// Phase percentages of total frame time
	PhasePct map[string]float64

	// World ticks per second of frame time
	TicksPerSecond float64

	// Wall time between the last two frames
	FrameInterval time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameInterval: p.frameInterval,
	}
	if p.frameInterval > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameInterval)
	}
	if p.sampleCount == 0 {
		return stats
	}

	var totalFrame time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalFrame += s.FrameDuration
		stats.Ticks += s.Ticks

		if i == 0 || s.FrameDuration < stats.MinFrameDuration {
			stats.MinFrameDuration = s.FrameDuration
		}
		if s.FrameDuration > stats.MaxFrameDuration {
			stats.MaxFrameDuration = s.FrameDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	stats.Frames = p.sampleCount
	stats.AvgFrameDuration = totalFrame / time.Duration(p.sampleCount)

	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if totalFrame > 0 {
			stats.PhasePct[phase] = float64(sum) / float64(totalFrame) * 100
		}
	}

	if stats.Ticks > 0 {
		stepTime := phaseSum[PhaseGrid] + phaseSum[PhaseEntities]
		stats.AvgTickDuration = stepTime / time.Duration(stats.Ticks)
		if totalFrame > 0 {
			stats.TicksPerSecond = float64(stats.Ticks) / totalFrame.Seconds()
		}
	}

	return stats
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frames", s.Frames),
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	Frames       int     `csv:"frames"`
	Ticks        int     `csv:"ticks"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	InputPct     float64 `csv:"input_pct"`
	GridPct      float64 `csv:"grid_pct"`
	EntitiesPct  float64 `csv:"entities_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Frames:       s.Frames,
		Ticks:        s.Ticks,
		AvgFrameUS:   s.AvgFrameDuration.Microseconds(),
		MinFrameUS:   s.MinFrameDuration.Microseconds(),
		MaxFrameUS:   s.MaxFrameDuration.Microseconds(),
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		InputPct:     s.PhasePct[PhaseInput],
		GridPct:      s.PhasePct[PhaseGrid],
		EntitiesPct:  s.PhasePct[PhaseEntities],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
