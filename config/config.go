// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Field     FieldConfig     `yaml:"field"`
	Entities  EntitiesConfig  `yaml:"entities"`
	Brushes   BrushesConfig   `yaml:"brushes"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Script    []ScriptEvent   `yaml:"script"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the tile grid dimensions and border policy.
type GridConfig struct {
	Width         int  `yaml:"width"`
	Height        int  `yaml:"height"`
	ProtectBorder bool `yaml:"protect_border"` // brushes skip border cells when set
}

// FieldConfig holds initial pressure field parameters.
type FieldConfig struct {
	NoiseAmplitude float64 `yaml:"noise_amplitude"` // 0 = start from an all-zero field
	NoiseScale     float64 `yaml:"noise_scale"`     // noise frequency per cell
	NoiseSeed      int64   `yaml:"noise_seed"`
}

// EntitiesConfig holds entity pass parameters.
type EntitiesConfig struct {
	ParallelThreshold int `yaml:"parallel_threshold"` // min entity count for the worker pool (0 = never)
	Workers           int `yaml:"workers"`            // 0 = GOMAXPROCS
}

// BrushesConfig holds the tile painted by each front-end action.
type BrushesConfig struct {
	Walls    BrushConfig `yaml:"walls"`
	Drains   BrushConfig `yaml:"drains"`
	Positive BrushConfig `yaml:"positive"`
	Negative BrushConfig `yaml:"negative"`
}

// BrushConfig describes one disc brush.
type BrushConfig struct {
	Tile   string  `yaml:"tile"`  // empty, wall or drain
	Value  float64 `yaml:"value"` // pressure for empty tiles
	Radius float64 `yaml:"radius"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // ticks per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"` // frames in the perf rolling window
	BookmarkHistory     int `yaml:"bookmark_history"`      // windows of history for bookmark detection
}

// ScriptEvent is one scripted input event applied before the given frame.
type ScriptEvent struct {
	Frame  int    `yaml:"frame"`
	Op     string `yaml:"op"`               // press, release, move, pause, step, exit
	Action string `yaml:"action,omitempty"` // for press/release
	X      int    `yaml:"x,omitempty"`      // for move
	Y      int    `yaml:"y,omitempty"`
}

// Script ops.
const (
	OpPress   = "press"
	OpRelease = "release"
	OpMove    = "move"
	OpPause   = "pause"
	OpStep    = "step"
	OpExit    = "exit"
)

// Action names accepted by press/release events.
const (
	ActionEntities = "entities"
	ActionWalls    = "walls"
	ActionDrains   = "drains"
	ActionPositive = "positive"
	ActionNegative = "negative"
)

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells     int // Grid.Width * Grid.Height
	Interior  int // cells not on the border
	LastFrame int // highest scripted frame, -1 without a script
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes data over the embedded defaults, validates the result and
// computes derived values. A nil data yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if data != nil {
		// Only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Grid.Width < 3 || c.Grid.Height < 3 {
		errs = append(errs, fmt.Errorf("grid must be at least 3x3, got %dx%d", c.Grid.Width, c.Grid.Height))
	}
	if c.Field.NoiseAmplitude != 0 && c.Field.NoiseScale <= 0 {
		errs = append(errs, fmt.Errorf("field.noise_scale must be positive, got %g", c.Field.NoiseScale))
	}
	if c.Entities.ParallelThreshold < 0 {
		errs = append(errs, fmt.Errorf("entities.parallel_threshold must not be negative"))
	}
	if c.Entities.Workers < 0 {
		errs = append(errs, fmt.Errorf("entities.workers must not be negative"))
	}

	brushes := []struct {
		name  string
		brush BrushConfig
	}{
		{ActionWalls, c.Brushes.Walls},
		{ActionDrains, c.Brushes.Drains},
		{ActionPositive, c.Brushes.Positive},
		{ActionNegative, c.Brushes.Negative},
	}
	for _, b := range brushes {
		switch b.brush.Tile {
		case "empty", "wall", "drain":
		default:
			errs = append(errs, fmt.Errorf("brushes.%s: unknown tile %q", b.name, b.brush.Tile))
		}
		if b.brush.Radius < 0 {
			errs = append(errs, fmt.Errorf("brushes.%s: radius must not be negative", b.name))
		}
	}

	if c.Telemetry.StatsWindow < 1 {
		errs = append(errs, fmt.Errorf("telemetry.stats_window must be at least 1"))
	}

	prev := 0
	for i, ev := range c.Script {
		if ev.Frame < 0 {
			errs = append(errs, fmt.Errorf("script[%d]: negative frame %d", i, ev.Frame))
		}
		if ev.Frame < prev {
			errs = append(errs, fmt.Errorf("script[%d]: frame %d out of order", i, ev.Frame))
		}
		prev = ev.Frame
		switch ev.Op {
		case OpPress, OpRelease:
			if !validAction(ev.Action) {
				errs = append(errs, fmt.Errorf("script[%d]: unknown action %q", i, ev.Action))
			}
		case OpMove, OpPause, OpStep, OpExit:
		default:
			errs = append(errs, fmt.Errorf("script[%d]: unknown op %q", i, ev.Op))
		}
	}

	return errors.Join(errs...)
}

func validAction(name string) bool {
	switch name {
	case ActionEntities, ActionWalls, ActionDrains, ActionPositive, ActionNegative:
		return true
	}
	return false
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.Grid.Width * c.Grid.Height
	c.Derived.Interior = (c.Grid.Width - 2) * (c.Grid.Height - 2)

	c.Derived.LastFrame = -1
	for _, ev := range c.Script {
		if ev.Frame > c.Derived.LastFrame {
			c.Derived.LastFrame = ev.Frame
		}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
