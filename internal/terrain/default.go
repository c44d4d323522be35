package terrain

import (
	"math"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/noise"
)

// Biome is the channel that dominates a column.
type Biome uint8

const (
	BiomeHills Biome = iota
	BiomeMountains
	BiomeRidges
)

func (b Biome) String() string {
	switch b {
	case BiomeMountains:
		return "mountains"
	case BiomeRidges:
		return "ridges"
	default:
		return "hills"
	}
}

// noise channel ids for Derive
const (
	chanMountains uint64 = iota + 1
	chanHills
	chanRidges
	chanCaveA
	chanCaveB
	chanOre
)

type column struct {
	x, z   int
	valid  bool
	height int
	biome  Biome
}

type ore struct {
	block     chunk.BlockID
	minDepth  int
	scale     float64
	threshold float64
	field     noise.Gradient
}

// DefaultGenerator blends mountain, hill and ridge noise into a height field,
// layers surface blocks by biome, carves caves and seeds ore pockets.
//
// Column results are memoised, so a DefaultGenerator must not be shared
// between goroutines.
type DefaultGenerator struct {
	preset    Preset
	mountains noise.Gradient
	hills     noise.Gradient
	ridges    noise.Gradient
	caveA     noise.Gradient
	caveB     *noise.Simplex
	ores      []ore
	columns   [chunk.Area]column
}

// NewDefaultGenerator seeds every noise channel independently from seed.
func NewDefaultGenerator(seed int64, p Preset) (*DefaultGenerator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g := &DefaultGenerator{
		preset:    p,
		mountains: noise.NewGradient(noise.Derive(seed, chanMountains)),
		hills:     noise.NewGradient(noise.Derive(seed, chanHills)),
		ridges:    noise.NewGradient(noise.Derive(seed, chanRidges)),
		caveA:     noise.NewGradient(noise.Derive(seed, chanCaveA)),
		caveB:     noise.NewSimplex(noise.Derive(seed, chanCaveB)),
	}
	for i, o := range p.Ores {
		id, _ := chunk.ParseBlockID(o.Block)
		g.ores = append(g.ores, ore{
			block:     id,
			minDepth:  o.MinDepth,
			scale:     o.Scale,
			threshold: o.Threshold,
			field:     noise.NewGradient(noise.Derive(seed, chanOre+uint64(i))),
		})
	}
	return g, nil
}

// Preset returns the parameters the generator was built with.
func (g *DefaultGenerator) Preset() Preset { return g.preset }

// Column returns the surface height and biome at (x, z).
func (g *DefaultGenerator) Column(x, z int) (height int, biome Biome) {
	slot := &g.columns[chunk.Mod(x, chunk.Size)+chunk.Mod(z, chunk.Size)*chunk.Size]
	if !slot.valid || slot.x != x || slot.z != z {
		h, b := g.column(x, z)
		*slot = column{x: x, z: z, valid: true, height: h, biome: b}
	}
	return slot.height, slot.biome
}

func (g *DefaultGenerator) column(x, z int) (int, Biome) {
	p := &g.preset
	fx, fz := float64(x), float64(z)

	m := noise.Fractal2D(g.mountains, fx/p.Mountains.Scale, fz/p.Mountains.Scale, p.Mountains.Octaves)
	h := noise.Fractal2D(g.hills, fx/p.Hills.Scale, fz/p.Hills.Scale, p.Hills.Octaves)
	r := noise.Fractal2D(g.ridges, fx/p.Ridges.Scale, fz/p.Ridges.Scale, p.Ridges.Octaves)

	mountains := math.Max(m, 0) * p.Mountains.Amplitude
	hills := h * p.Hills.Amplitude
	ridge := 1 - math.Abs(r)
	ridges := ridge * ridge * ridge * p.Ridges.Amplitude

	biome := BiomeHills
	best := hills
	if mountains > best {
		biome, best = BiomeMountains, mountains
	}
	if ridges > best {
		biome = BiomeRidges
	}

	return int(math.Floor(p.BaseHeight + mountains + hills + ridges)), biome
}

// Sample implements Generator.
func (g *DefaultGenerator) Sample(x, y, z int) Sample {
	p := &g.preset
	if y < p.Bedrock {
		return Sample{Block: chunk.Air, Light: 0}
	}
	if y == p.Bedrock {
		return Sample{Block: chunk.Bedrock, Light: 0}
	}

	height, biome := g.Column(x, z)
	depth := height - y
	if depth < 0 {
		if y <= p.SeaLevel {
			return Sample{Block: chunk.Water, Light: depthLight(p.SeaLevel - y)}
		}
		return Sample{Block: chunk.Air, Light: MaxLight}
	}

	light := depthLight(depth)
	if depth >= p.Caves.MinDepth && g.cave(x, y, z, depth) {
		return Sample{Block: chunk.Air, Light: light}
	}

	block := g.surface(height, depth, biome)
	if block == chunk.Stone {
		block = g.ore(x, y, z, depth)
	}
	return Sample{Block: block, Light: light}
}

// cave reports whether (x, y, z) is carved. The threshold is raised near the
// surface and relaxes with depth, so caverns widen downward.
func (g *DefaultGenerator) cave(x, y, z, depth int) bool {
	c := &g.preset.Caves
	fx, fy, fz := float64(x)/c.Scale, float64(y)/c.VerticalScale, float64(z)/c.Scale
	density := (g.caveA.Noise3D(fx, fy, fz) + g.caveB.Noise3D(fx*1.7, fy*1.7, fz*1.7)) / 2
	threshold := c.Threshold + c.SurfaceBoost*math.Exp(-float64(depth)/c.Falloff)
	return density > threshold
}

func (g *DefaultGenerator) surface(height, depth int, biome Biome) chunk.BlockID {
	p := &g.preset
	switch biome {
	case BiomeMountains:
		if depth == 0 && height > p.SnowLine {
			return chunk.Snow
		}
		return chunk.Stone
	case BiomeRidges:
		return chunk.Stone
	}

	switch {
	case depth > 3:
		return chunk.Stone
	case height < p.SeaLevel-1:
		return chunk.Gravel
	case height <= p.SeaLevel+1:
		return chunk.Sand
	case depth == 0:
		return chunk.Grass
	default:
		return chunk.Dirt
	}
}

func (g *DefaultGenerator) ore(x, y, z, depth int) chunk.BlockID {
	for i := range g.ores {
		o := &g.ores[i]
		if depth < o.minDepth {
			continue
		}
		if o.field.Noise3D(float64(x)/o.scale, float64(y)/o.scale, float64(z)/o.scale) > o.threshold {
			return o.block
		}
	}
	return chunk.Stone
}
