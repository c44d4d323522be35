package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/OCharnyshevich/chunkstream/internal/lookup"
)

// Config holds the streaming world configuration.
type Config struct {
	World   WorldConfig   `toml:"world"`
	Queue   QueueConfig   `toml:"queue"`
	Physics PhysicsConfig `toml:"physics"`
	Logging LoggingConfig `toml:"logging"`
}

// WorldConfig selects terrain and sizes the streaming window.
type WorldConfig struct {
	RenderDistance int    `toml:"render_distance"` // chunks
	Seed           int64  `toml:"seed"`
	Generator      string `toml:"generator"` // "default", "flat" or "script"
	Preset         string `toml:"preset"`    // YAML terrain preset, default generator only
	Script         string `toml:"script"`    // Lua terrain script, script generator only
	DataDir        string `toml:"data_dir"`  // lookup caches and saved chunks
	WorldRadius    int    `toml:"world_radius"`
	PoolCapacity   int    `toml:"pool_capacity"` // 0 = exactly CHUNKS_MAX
}

// TierConfig sizes one load queue tier. Share is the fraction of the visible
// cells, nearest first, the tier is responsible for.
type TierConfig struct {
	Share     float64 `toml:"share"`
	Capacity  int     `toml:"capacity"`
	RateChunk int     `toml:"rate_chunk"`
	RateBlock int     `toml:"rate_block"`
}

// QueueConfig holds the three load queue tiers.
type QueueConfig struct {
	Near TierConfig `toml:"near"`
	Mid  TierConfig `toml:"mid"`
	Far  TierConfig `toml:"far"`
}

// Tiers returns the tiers nearest first.
func (q QueueConfig) Tiers() [3]TierConfig {
	return [3]TierConfig{q.Near, q.Mid, q.Far}
}

// PhysicsConfig tunes the collision solver and the observer body.
type PhysicsConfig struct {
	Gravity         float64 `toml:"gravity"` // blocks/s², applied along -Y
	Passes          int     `toml:"passes"`
	DamageThreshold float64 `toml:"damage_threshold"` // velocity lost in one hit before damage applies
	DamageScale     float64 `toml:"damage_scale"`     // health per unit of velocity above threshold
	MaxHealth       float64 `toml:"max_health"`
	AirFriction     float64 `toml:"air_friction"`
	Width           float64 `toml:"width"`
	Height          float64 `toml:"height"`
	EyeHeight       float64 `toml:"eye_height"`
	WalkSpeed       float64 `toml:"walk_speed"`
	JumpSpeed       float64 `toml:"jump_speed"`
	Sensitivity     float64 `toml:"sensitivity"` // radians per cursor unit
}

// LoggingConfig sets the zap level and encoder.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			RenderDistance: 8,
			Generator:      "default",
			DataDir:        "data",
		},
		Queue: QueueConfig{
			Near: TierConfig{Share: 0.15, Capacity: 8, RateChunk: 4, RateBlock: 4096},
			Mid:  TierConfig{Share: 0.35, Capacity: 16, RateChunk: 2, RateBlock: 2048},
			Far:  TierConfig{Share: 0.50, Capacity: 32, RateChunk: 1, RateBlock: 1024},
		},
		Physics: PhysicsConfig{
			Gravity:         28,
			Passes:          3,
			DamageThreshold: 18,
			DamageScale:     2,
			MaxHealth:       20,
			AirFriction:     0.02,
			Width:           0.6,
			Height:          1.8,
			EyeHeight:       1.62,
			WalkSpeed:       4.3,
			JumpSpeed:       8.5,
			Sensitivity:     0.0025,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML file over DefaultConfig. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	flagged := cfg.World
	cfg.World = fromFile.World
	if explicitFlags["render-distance"] {
		cfg.World.RenderDistance = flagged.RenderDistance
	}
	if explicitFlags["seed"] {
		cfg.World.Seed = flagged.Seed
	}
	if explicitFlags["generator"] {
		cfg.World.Generator = flagged.Generator
	}
	if explicitFlags["preset"] {
		cfg.World.Preset = flagged.Preset
	}
	if explicitFlags["script"] {
		cfg.World.Script = flagged.Script
	}
	if explicitFlags["data-dir"] {
		cfg.World.DataDir = flagged.DataDir
	}
	if explicitFlags["world-radius"] {
		cfg.World.WorldRadius = flagged.WorldRadius
	}

	cfg.Queue = fromFile.Queue
	cfg.Physics = fromFile.Physics

	level := cfg.Logging.Level
	cfg.Logging = fromFile.Logging
	if explicitFlags["log-level"] {
		cfg.Logging.Level = level
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	w := c.World
	if w.RenderDistance < 1 || w.RenderDistance > lookup.MaxRenderDistance {
		errs = append(errs, fmt.Errorf("world.render_distance %d outside [1, %d]", w.RenderDistance, lookup.MaxRenderDistance))
	}
	switch w.Generator {
	case "default", "flat":
	case "script":
		if w.Script == "" {
			errs = append(errs, errors.New("world.script required for script generator"))
		}
	default:
		errs = append(errs, fmt.Errorf("world.generator %q unknown", w.Generator))
	}
	if w.DataDir == "" {
		errs = append(errs, errors.New("world.data_dir required"))
	}
	if w.WorldRadius < 0 {
		errs = append(errs, errors.New("world.world_radius must not be negative"))
	}
	if w.PoolCapacity < 0 {
		errs = append(errs, errors.New("world.pool_capacity must not be negative"))
	}

	var share float64
	for i, t := range c.Queue.Tiers() {
		name := [...]string{"near", "mid", "far"}[i]
		if t.Share <= 0 {
			errs = append(errs, fmt.Errorf("queue.%s.share must be positive", name))
		}
		if t.Capacity < 1 || t.RateChunk < 1 || t.RateBlock < 1 {
			errs = append(errs, fmt.Errorf("queue.%s capacity and rates must be at least 1", name))
		}
		share += t.Share
	}
	if math.Abs(share-1) > 1e-6 {
		errs = append(errs, fmt.Errorf("queue shares sum to %g, want 1", share))
	}

	p := c.Physics
	if p.Passes < 1 {
		errs = append(errs, errors.New("physics.passes must be at least 1"))
	}
	if p.MaxHealth <= 0 {
		errs = append(errs, errors.New("physics.max_health must be positive"))
	}
	if p.Width <= 0 || p.Height <= 0 || p.EyeHeight > p.Height {
		errs = append(errs, errors.New("physics body size invalid"))
	}
	if p.AirFriction < 0 || p.AirFriction >= 1 {
		errs = append(errs, errors.New("physics.air_friction outside [0, 1)"))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q unknown", c.Logging.Format))
	}
	return errors.Join(errs...)
}
