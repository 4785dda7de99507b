package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/pressure/config"
	"github.com/pthm-cable/pressure/telemetry"
	"github.com/pthm-cable/pressure/world"
)

// Options configures a Session beyond what the config file holds.
type Options struct {
	Seed           int64  // overrides field.noise_seed when non-zero
	LogStats       bool   // log window and perf stats via slog
	OutputDir      string // CSV and config snapshot directory (empty = disabled)
	StepsPerUpdate int    // world ticks per Update while running
}

// brush is a resolved brush action.
type brush struct {
	tile   world.Tile
	radius float32
}

// Session drives a World headlessly: run state, the held action, the cursor,
// the scripted input timeline and telemetry.
type Session struct {
	cfg   *config.Config
	world *world.World

	// Control state
	state          RunState
	action         Action
	cursor         world.Point
	frame          int
	stepsPerUpdate int
	brushes        map[Action]brush

	// Scripted input
	script    []config.ScriptEvent
	scriptPos int

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
}

// NewSession builds a World from cfg and wraps it in a running Session.
func NewSession(cfg *config.Config, opts Options) (*Session, error) {
	brushes, err := resolveBrushes(cfg.Brushes)
	if err != nil {
		return nil, err
	}

	w := world.New(world.Options{
		Width:             cfg.Grid.Width,
		Height:            cfg.Grid.Height,
		ProtectBorder:     cfg.Grid.ProtectBorder,
		ParallelThreshold: cfg.Entities.ParallelThreshold,
		Workers:           cfg.Entities.Workers,
	})

	seed := cfg.Field.NoiseSeed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	w.Grid().SeedNoise(cfg.Field.NoiseAmplitude, cfg.Field.NoiseScale, seed)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("setting up output: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		w.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	s := &Session{
		cfg:              cfg,
		world:            w,
		state:            Running,
		stepsPerUpdate:   steps,
		brushes:          brushes,
		script:           cfg.Script,
		collector:        telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		outputManager:    om,
		logStats:         opts.LogStats,
	}
	w.SetPhaseHook(s.perfCollector.StartPhase)

	return s, nil
}

func resolveBrushes(bc config.BrushesConfig) (map[Action]brush, error) {
	entries := []struct {
		action Action
		cfg    config.BrushConfig
	}{
		{WallsBrush, bc.Walls},
		{DrainsBrush, bc.Drains},
		{PositivePressureBrush, bc.Positive},
		{NegativePressureBrush, bc.Negative},
	}

	brushes := make(map[Action]brush, len(entries))
	for _, e := range entries {
		kind, err := world.ParseTileKind(e.cfg.Tile)
		if err != nil {
			return nil, fmt.Errorf("brush %s: %w", e.action, err)
		}
		brushes[e.action] = brush{
			tile:   world.NewTile(kind, float32(e.cfg.Value)),
			radius: float32(e.cfg.Radius),
		}
	}
	return brushes, nil
}

// Update runs one frame: scripted input, then world ticks unless paused,
// then the held action at the cursor.
func (s *Session) Update() {
	if s.state == Exited {
		return
	}

	s.perfCollector.StartFrame()

	s.perfCollector.StartPhase(telemetry.PhaseInput)
	s.applyScript()

	ticks := 0
	if s.state != Exited {
		ticks = s.simulate()

		s.perfCollector.StartPhase(telemetry.PhaseInput)
		s.applyAction()

		s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
		s.flushTelemetry()
	}

	s.perfCollector.EndFrame(ticks)
	s.frame++
}

// simulate steps the world according to the run state and returns the number
// of ticks run.
func (s *Session) simulate() int {
	if s.state == Paused {
		return 0
	}

	for i := 0; i < s.stepsPerUpdate; i++ {
		s.world.Step()
		s.collector.RecordStep(s.world.LastStep())

		if s.state == Skipping {
			s.state = Paused
			return i + 1
		}
	}
	return s.stepsPerUpdate
}

// applyAction applies the held action at the cursor.
func (s *Session) applyAction() {
	switch s.action {
	case ActionNone:
		return
	case EntitiesBrush:
		s.world.PlaceEntity(s.cursor)
		s.collector.RecordPlacement()
	default:
		b, ok := s.brushes[s.action]
		if !ok {
			return
		}
		s.collector.RecordPaint(s.world.Brush(b.tile, s.cursor, b.radius))
	}
}

// SetStatsCallback sets a function called with every flushed stats window.
func (s *Session) SetStatsCallback(fn func(telemetry.WindowStats)) {
	s.statsCallback = fn
}

// Config returns the configuration the session was built from.
func (s *Session) Config() *config.Config { return s.cfg }

// World returns the simulated world.
func (s *Session) World() *world.World { return s.world }

// Tick returns the number of world ticks simulated so far.
func (s *Session) Tick() int64 { return s.world.Tick() }

// PerfStats returns frame and tick timing over the perf window.
func (s *Session) PerfStats() telemetry.PerfStats { return s.perfCollector.Stats() }

// Frame returns the number of Update calls processed.
func (s *Session) Frame() int { return s.frame }

// Close releases the world workers and flushes output files.
func (s *Session) Close() error {
	s.world.Close()
	if err := s.outputManager.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if dir := s.outputManager.Dir(); dir != "" {
		slog.Info("output written", "dir", dir)
	}
	return nil
}
