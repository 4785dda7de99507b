package telemetry

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// runFrame records one frame: 2ms of input, then ticks world ticks of 3ms grid
// and 1ms entities each.
func runFrame(pc *PerfCollector, clock *fakeClock, ticks int) {
	pc.StartFrame()
	pc.StartPhase(PhaseInput)
	clock.advance(2 * time.Millisecond)
	for i := 0; i < ticks; i++ {
		pc.StartPhase(PhaseGrid)
		clock.advance(3 * time.Millisecond)
		pc.StartPhase(PhaseEntities)
		clock.advance(time.Millisecond)
	}
	pc.EndFrame(ticks)
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	clock := newFakeClock()
	pc := NewPerfCollector(10)
	pc.SetClock(clock.now)

	for i := 0; i < 5; i++ {
		runFrame(pc, clock, 2)
		clock.advance(6 * time.Millisecond)
	}

	stats := pc.Stats()

	if stats.Frames != 5 || stats.Ticks != 10 {
		t.Errorf("frames/ticks = %d/%d, want 5/10", stats.Frames, stats.Ticks)
	}
	if stats.AvgFrameDuration != 10*time.Millisecond {
		t.Errorf("AvgFrameDuration = %v, want 10ms", stats.AvgFrameDuration)
	}
	if stats.AvgTickDuration != 4*time.Millisecond {
		t.Errorf("AvgTickDuration = %v, want 4ms", stats.AvgTickDuration)
	}
	if stats.TicksPerSecond != 200 {
		t.Errorf("TicksPerSecond = %v, want 200", stats.TicksPerSecond)
	}
	if stats.PhaseAvg[PhaseGrid] != 6*time.Millisecond || stats.PhaseAvg[PhaseInput] != 2*time.Millisecond {
		t.Errorf("PhaseAvg = %v", stats.PhaseAvg)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	clock := newFakeClock()
	pc := NewPerfCollector(10)
	pc.SetClock(clock.now)

	for i := 0; i < 5; i++ {
		runFrame(pc, clock, 2)
	}

	stats := pc.Stats()

	want := map[string]float64{PhaseInput: 20, PhaseGrid: 60, PhaseEntities: 20}
	for phase, pct := range want {
		if stats.PhasePct[phase] != pct {
			t.Errorf("%s pct = %v, want %v", phase, stats.PhasePct[phase], pct)
		}
	}
	if _, ok := stats.PhasePct[PhaseTelemetry]; ok {
		t.Error("telemetry phase never ran but has a percentage")
	}
}

func TestPerfCollector_ThroughputCountsEveryTick(t *testing.T) {
	clock := newFakeClock()
	pc := NewPerfCollector(30)
	pc.SetClock(clock.now)

	// One frame of 20 ticks costs 2ms + 20*4ms = 82ms.
	for i := 0; i < 30; i++ {
		runFrame(pc, clock, 20)
	}

	stats := pc.Stats()

	if stats.Ticks != 600 {
		t.Errorf("Ticks = %d, want 600", stats.Ticks)
	}
	if stats.AvgTickDuration != 4*time.Millisecond {
		t.Errorf("AvgTickDuration = %v, want 4ms per world tick", stats.AvgTickDuration)
	}
	wantTPS := 600 / (30 * 82 * time.Millisecond).Seconds()
	if stats.TicksPerSecond != wantTPS {
		t.Errorf("TicksPerSecond = %v, want %v", stats.TicksPerSecond, wantTPS)
	}
	framesPerSec := float64(time.Second) / float64(stats.AvgFrameDuration)
	if got := stats.TicksPerSecond / framesPerSec; got < 19.99 || got > 20.01 {
		t.Errorf("ticks per frame = %v, want 20", got)
	}
}

func TestPerfCollector_PausedFrames(t *testing.T) {
	clock := newFakeClock()
	pc := NewPerfCollector(10)
	pc.SetClock(clock.now)

	for i := 0; i < 3; i++ {
		runFrame(pc, clock, 0)
	}

	stats := pc.Stats()

	if stats.Frames != 3 || stats.Ticks != 0 {
		t.Errorf("frames/ticks = %d/%d, want 3/0", stats.Frames, stats.Ticks)
	}
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("paused window reported tick cost %v and %v ticks/s",
			stats.AvgTickDuration, stats.TicksPerSecond)
	}
	if stats.AvgFrameDuration != 2*time.Millisecond {
		t.Errorf("AvgFrameDuration = %v, want 2ms", stats.AvgFrameDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	clock := newFakeClock()
	pc := NewPerfCollector(3)
	pc.SetClock(clock.now)

	// Frames of 1ms..5ms; only the last three stay in the window.
	for i := 1; i <= 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseGrid)
		clock.advance(time.Duration(i) * time.Millisecond)
		pc.EndFrame(1)
	}

	stats := pc.Stats()

	if stats.Frames != 3 || stats.Ticks != 3 {
		t.Errorf("frames/ticks = %d/%d, want 3/3", stats.Frames, stats.Ticks)
	}
	if stats.MinFrameDuration != 3*time.Millisecond || stats.MaxFrameDuration != 5*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 3ms/5ms", stats.MinFrameDuration, stats.MaxFrameDuration)
	}
	if stats.AvgFrameDuration != 4*time.Millisecond {
		t.Errorf("AvgFrameDuration = %v, want 4ms", stats.AvgFrameDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgFrameDuration != 0 || stats.AvgTickDuration != 0 || stats.Frames != 0 {
		t.Errorf("expected zero stats for empty collector, got %+v", stats)
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameInterval(t *testing.T) {
	clock := newFakeClock()
	pc := NewPerfCollector(10)
	pc.SetClock(clock.now)

	runFrame(pc, clock, 1)
	if stats := pc.Stats(); stats.FPS != 0 {
		t.Errorf("FPS after one frame = %v, want 0", stats.FPS)
	}

	clock.advance(10 * time.Millisecond)
	runFrame(pc, clock, 1)

	// 6ms of work plus 10ms idle between starts.
	stats := pc.Stats()
	if stats.FrameInterval != 16*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 16ms", stats.FrameInterval)
	}
	if stats.FPS != 62.5 {
		t.Errorf("FPS = %v, want 62.5", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		Frames:           60,
		Ticks:            1200,
		AvgFrameDuration: 30 * time.Millisecond,
		MinFrameDuration: 20 * time.Millisecond,
		MaxFrameDuration: 40 * time.Millisecond,
		AvgTickDuration:  1500 * time.Microsecond,
		PhasePct: map[string]float64{
			PhaseGrid:     70,
			PhaseEntities: 25,
			PhaseInput:    5,
		},
		TicksPerSecond: 666.6,
	}

	rec := stats.ToCSV(120)

	if rec.WindowEnd != 120 || rec.Frames != 60 || rec.Ticks != 1200 {
		t.Errorf("unexpected count fields: %+v", rec)
	}
	if rec.AvgFrameUS != 30000 || rec.MinFrameUS != 20000 || rec.MaxFrameUS != 40000 || rec.AvgTickUS != 1500 {
		t.Errorf("unexpected timing fields: %+v", rec)
	}
	if rec.GridPct != 70 || rec.EntitiesPct != 25 || rec.InputPct != 5 || rec.TelemetryPct != 0 {
		t.Errorf("unexpected phase fields: %+v", rec)
	}
}
