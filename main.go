package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/pressure/config"
	"github.com/pthm-cable/pressure/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Noise seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := game.Options{
		Seed:           *seed,
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
	}

	s, err := game.NewSession(cfg, opts)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("failed to close session", "error", err)
		}
	}()

	if *maxTicks == 0 && cfg.Derived.LastFrame < 0 {
		slog.Warn("no script and no tick limit, running until interrupted")
	}

	slog.Info("starting simulation",
		"width", cfg.Grid.Width,
		"height", cfg.Grid.Height,
		"script_events", len(cfg.Script),
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
	)

	for s.State() != game.Exited {
		s.Update()

		if *maxTicks > 0 && int(s.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
	}

	slog.Info("session exited", "frame", s.Frame(), "tick", s.Tick(), "entities", s.World().EntityCount())
}
