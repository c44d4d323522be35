// Package terrain produces block content as a pure function of seed and
// world coordinates.
package terrain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
)

// MaxLight is the light level of open sky.
const MaxLight = 15

// Sample is the generated content of one block.
type Sample struct {
	Block chunk.BlockID
	Light uint8
}

// Generator fills blocks. Sample must depend only on the generator's seed
// and the coordinates so chunks can be generated in any order.
type Generator interface {
	Sample(x, y, z int) Sample
}

// Kind selects a Generator implementation.
type Kind string

const (
	KindDefault Kind = "default"
	KindFlat    Kind = "flat"
	KindScript  Kind = "script"
)

// Options configures New.
type Options struct {
	Kind   Kind
	Seed   int64
	Preset string // YAML preset path; empty uses DefaultPreset
	Script string // Lua script path for KindScript
}

// New builds the generator named by opts.Kind.
func New(opts Options, log *zap.Logger) (Generator, error) {
	switch opts.Kind {
	case KindDefault, "":
		p, err := LoadPreset(opts.Preset)
		if err != nil {
			return nil, err
		}
		return NewDefaultGenerator(opts.Seed, p)
	case KindFlat:
		return NewFlatGenerator(), nil
	case KindScript:
		return NewScriptGenerator(opts.Script, opts.Seed, log)
	default:
		return nil, fmt.Errorf("unknown generator %q", opts.Kind)
	}
}

// SpawnHeight scans column (x, z) downward from top and returns the y just
// above the first solid block, or bottom when the column is open.
func SpawnHeight(g Generator, x, z, top, bottom int) int {
	for y := top; y >= bottom; y-- {
		if g.Sample(x, y, z).Block.Solid() {
			return y + 1
		}
	}
	return bottom
}

// depthLight fades sky light by one level per block below the surface.
func depthLight(depth int) uint8 {
	if depth <= 0 {
		return MaxLight
	}
	if depth >= MaxLight {
		return 0
	}
	return uint8(MaxLight - depth)
}
