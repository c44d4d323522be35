package terrain

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/noise"
)

// Channel is one height noise layer.
type Channel struct {
	Scale     float64       `yaml:"scale"`     // horizontal period in blocks
	Amplitude float64       `yaml:"amplitude"` // height contribution in blocks
	Octaves   noise.Octaves `yaml:"octaves"`
}

// CavePreset shapes cave carving. A block is carved when the cave density
// exceeds Threshold + SurfaceBoost*exp(-depth/Falloff).
type CavePreset struct {
	Scale         float64 `yaml:"scale"`
	VerticalScale float64 `yaml:"vertical_scale"`
	Threshold     float64 `yaml:"threshold"`
	SurfaceBoost  float64 `yaml:"surface_boost"`
	Falloff       float64 `yaml:"falloff"`
	MinDepth      int     `yaml:"min_depth"`
}

// OrePreset places pockets of Block in stone at least MinDepth below the
// surface wherever its noise exceeds Threshold.
type OrePreset struct {
	Block     string  `yaml:"block"`
	MinDepth  int     `yaml:"min_depth"`
	Scale     float64 `yaml:"scale"`
	Threshold float64 `yaml:"threshold"`
}

// Preset holds every tunable of the default generator.
type Preset struct {
	Name       string      `yaml:"name"`
	SeaLevel   int         `yaml:"sea_level"`
	SnowLine   int         `yaml:"snow_line"`
	Bedrock    int         `yaml:"bedrock"`
	BaseHeight float64     `yaml:"base_height"`
	Mountains  Channel     `yaml:"mountains"`
	Hills      Channel     `yaml:"hills"`
	Ridges     Channel     `yaml:"ridges"`
	Caves      CavePreset  `yaml:"caves"`
	Ores       []OrePreset `yaml:"ores"`
}

// DefaultPreset returns the built-in terrain parameters.
func DefaultPreset() Preset {
	return Preset{
		Name:       "default",
		SeaLevel:   0,
		SnowLine:   40,
		Bedrock:    -96,
		BaseHeight: 4,
		Mountains:  Channel{Scale: 256, Amplitude: 48, Octaves: noise.Octaves{Count: 5, Persistence: 0.5}},
		Hills:      Channel{Scale: 96, Amplitude: 12, Octaves: noise.Octaves{Count: 4, Persistence: 0.5}},
		Ridges:     Channel{Scale: 192, Amplitude: 24, Octaves: noise.Octaves{Count: 3, Persistence: 0.5}},
		Caves: CavePreset{
			Scale:         48,
			VerticalScale: 32,
			Threshold:     0.35,
			SurfaceBoost:  0.5,
			Falloff:       24,
			MinDepth:      4,
		},
		Ores: []OrePreset{
			{Block: "coal_ore", MinDepth: 6, Scale: 6, Threshold: 0.62},
			{Block: "iron_ore", MinDepth: 24, Scale: 5, Threshold: 0.68},
		},
	}
}

// LoadPreset reads a YAML preset over DefaultPreset, so omitted keys keep
// their defaults. An empty path returns DefaultPreset.
func LoadPreset(path string) (Preset, error) {
	p := DefaultPreset()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read preset: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("preset %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that scales are positive and ore blocks exist.
func (p Preset) Validate() error {
	var errs []error
	channels := []struct {
		name string
		ch   Channel
	}{{"mountains", p.Mountains}, {"hills", p.Hills}, {"ridges", p.Ridges}}
	for _, c := range channels {
		if c.ch.Scale <= 0 {
			errs = append(errs, fmt.Errorf("%s.scale must be positive", c.name))
		}
	}
	if p.Caves.Scale <= 0 || p.Caves.VerticalScale <= 0 {
		errs = append(errs, errors.New("caves scales must be positive"))
	}
	if p.Caves.Falloff <= 0 {
		errs = append(errs, errors.New("caves.falloff must be positive"))
	}
	for i, o := range p.Ores {
		if _, err := chunk.ParseBlockID(o.Block); err != nil {
			errs = append(errs, fmt.Errorf("ores[%d]: %w", i, err))
		}
		if o.Scale <= 0 {
			errs = append(errs, fmt.Errorf("ores[%d].scale must be positive", i))
		}
	}
	return errors.Join(errs...)
}
