package terrain

import "github.com/OCharnyshevich/chunkstream/internal/chunk"

// FlatGenerator generates a superflat world: bedrock at y=0, stone y=1..2,
// dirt y=3, grass y=4 and air everywhere else.
type FlatGenerator struct {
	layers []chunk.BlockID
}

// NewFlatGenerator returns the classic superflat layout.
func NewFlatGenerator() *FlatGenerator {
	return NewLayeredGenerator(chunk.Bedrock, chunk.Stone, chunk.Stone, chunk.Dirt, chunk.Grass)
}

// NewLayeredGenerator stacks layers bottom-up starting at y=0.
func NewLayeredGenerator(layers ...chunk.BlockID) *FlatGenerator {
	return &FlatGenerator{layers: layers}
}

// Height returns the y of the top layer.
func (g *FlatGenerator) Height() int {
	return len(g.layers) - 1
}

// Sample implements Generator.
func (g *FlatGenerator) Sample(_, y, _ int) Sample {
	if y < 0 {
		return Sample{Block: chunk.Air}
	}
	if y >= len(g.layers) {
		return Sample{Block: chunk.Air, Light: MaxLight}
	}
	return Sample{Block: g.layers[y], Light: depthLight(g.Height() - y)}
}
