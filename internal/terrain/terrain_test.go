package terrain

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/noise"
)

func newDefault(t *testing.T, seed int64) *DefaultGenerator {
	t.Helper()
	g, err := NewDefaultGenerator(seed, DefaultPreset())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestDefaultDeterministic(t *testing.T) {
	a := newDefault(t, 42)
	b := newDefault(t, 42)
	for x := -40; x < 40; x += 7 {
		for z := -40; z < 40; z += 5 {
			for y := -60; y < 60; y += 3 {
				if a.Sample(x, y, z) != b.Sample(x, y, z) {
					t.Fatalf("samples differ at (%d,%d,%d)", x, y, z)
				}
			}
		}
	}
}

func TestDefaultOrderIndependent(t *testing.T) {
	forward := newDefault(t, 7)
	backward := newDefault(t, 7)

	type key struct{ x, y, z int }
	got := make(map[key]Sample)
	for x := -20; x < 20; x++ {
		for z := -20; z < 20; z += 3 {
			got[key{x, 5, z}] = forward.Sample(x, 5, z)
		}
	}
	for x := 19; x >= -20; x-- {
		for z := 19; z >= -20; z-- {
			if (z+20)%3 != 0 {
				continue
			}
			if s := backward.Sample(x, 5, z); s != got[key{x, 5, z}] {
				t.Fatalf("sample at (%d,5,%d) depends on evaluation order", x, z)
			}
		}
	}
}

func TestDefaultSeedsDiffer(t *testing.T) {
	a := newDefault(t, 1)
	b := newDefault(t, 2)
	diff := 0
	for x := 0; x < 64; x += 4 {
		for z := 0; z < 64; z += 4 {
			ha, _ := a.Column(x, z)
			hb, _ := b.Column(x, z)
			if ha != hb {
				diff++
			}
		}
	}
	if diff == 0 {
		t.Error("different seeds produced identical height fields")
	}
}

func TestDefaultColumnLayers(t *testing.T) {
	g := newDefault(t, 99)
	p := g.Preset()
	for x := -30; x < 30; x += 6 {
		h, _ := g.Column(x, 11)
		above := g.Sample(x, h+1, 11)
		if h+1 > p.SeaLevel && above.Block != chunk.Air {
			t.Errorf("x=%d: block above surface is %v", x, above.Block)
		}
		if h+1 <= p.SeaLevel && above.Block != chunk.Water {
			t.Errorf("x=%d: block above submerged surface is %v", x, above.Block)
		}
		if s := g.Sample(x, h, 11); s.Block == chunk.Air || s.Block == chunk.Water {
			t.Errorf("x=%d: surface block is %v", x, s.Block)
		}
		if s := g.Sample(x, p.Bedrock, 11); s.Block != chunk.Bedrock {
			t.Errorf("x=%d: bedrock layer is %v", x, s.Block)
		}
	}
}

func TestDefaultCaveDensityBlendsChannels(t *testing.T) {
	const seed = 21
	g := newDefault(t, seed)
	c := g.Preset().Caves
	a := noise.NewGradient(noise.Derive(seed, chanCaveA))
	b := noise.NewSimplex(noise.Derive(seed, chanCaveB))
	carved := 0
	for x := -40; x < 40; x += 3 {
		for y := -60; y < 0; y += 4 {
			for z := -40; z < 40; z += 5 {
				depth := 30
				fx, fy, fz := float64(x)/c.Scale, float64(y)/c.VerticalScale, float64(z)/c.Scale
				density := (a.Noise3D(fx, fy, fz) + b.Noise3D(fx*1.7, fy*1.7, fz*1.7)) / 2
				want := density > c.Threshold+c.SurfaceBoost*math.Exp(-float64(depth)/c.Falloff)
				if got := g.cave(x, y, z, depth); got != want {
					t.Fatalf("cave(%d, %d, %d) = %v, want %v", x, y, z, got, want)
				}
				if want {
					carved++
				}
			}
		}
	}
	t.Logf("%d carved samples", carved)
}

func TestDefaultLightFadesWithDepth(t *testing.T) {
	g := newDefault(t, 3)
	h, _ := g.Column(0, 0)
	if l := g.Sample(0, h, 0).Light; l != MaxLight {
		t.Errorf("surface light = %d, want %d", l, MaxLight)
	}
	if l := g.Sample(0, h-MaxLight-5, 0).Light; l != 0 {
		t.Errorf("deep light = %d, want 0", l)
	}
}

func TestFlatLayout(t *testing.T) {
	g := NewFlatGenerator()
	want := []chunk.BlockID{chunk.Bedrock, chunk.Stone, chunk.Stone, chunk.Dirt, chunk.Grass}
	for y, id := range want {
		if got := g.Sample(3, y, -9).Block; got != id {
			t.Errorf("y=%d: got %v, want %v", y, got, id)
		}
	}
	if got := g.Sample(0, 5, 0); got.Block != chunk.Air || got.Light != MaxLight {
		t.Errorf("y=5: got %+v", got)
	}
	if got := g.Sample(0, -1, 0).Block; got != chunk.Air {
		t.Errorf("y=-1: got %v", got)
	}
}

func TestSpawnHeight(t *testing.T) {
	g := NewFlatGenerator()
	if y := SpawnHeight(g, 10, 10, 64, -8); y != 5 {
		t.Errorf("SpawnHeight = %d, want 5", y)
	}
	if y := SpawnHeight(NewLayeredGenerator(), 0, 0, 10, -3); y != -3 {
		t.Errorf("SpawnHeight over void = %d, want -3", y)
	}
}

func TestLoadPresetOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	yml := "name: islands\nsea_level: 12\nhills:\n  amplitude: 30\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPreset(path)
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultPreset()
	if p.Name != "islands" || p.SeaLevel != 12 || p.Hills.Amplitude != 30 {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.Hills.Scale != def.Hills.Scale || p.Mountains != def.Mountains {
		t.Error("omitted keys lost their defaults")
	}
}

func TestLoadPresetRejectsUnknownOre(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	yml := "ores:\n  - block: mithril\n    scale: 4\n    threshold: 0.5\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPreset(path); err == nil || !strings.Contains(err.Error(), "mithril") {
		t.Errorf("expected unknown block error, got %v", err)
	}
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gen.lua")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScriptGenerator(t *testing.T) {
	path := writeScript(t, `
function sample(x, y, z)
  if y < 0 then return BLOCK.stone, 0 end
  if y == 0 then return "grass" end
  return BLOCK.air
end
`)
	g, err := NewScriptGenerator(path, 1, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	cases := []struct {
		y    int
		want Sample
	}{
		{-3, Sample{Block: chunk.Stone, Light: 0}},
		{0, Sample{Block: chunk.Grass, Light: 0}},
		{4, Sample{Block: chunk.Air, Light: MaxLight}},
	}
	for _, c := range cases {
		if got := g.Sample(1, c.y, 2); got != c.want {
			t.Errorf("y=%d: got %+v, want %+v", c.y, got, c.want)
		}
	}
	if g.Failures() != 0 {
		t.Errorf("failures = %d", g.Failures())
	}
}

func TestScriptNoiseHelpersDeterministic(t *testing.T) {
	path := writeScript(t, `
function sample(x, y, z)
  if noise3(x / 7, y / 7, z / 7) + fractal2(x / 9, z / 9) > 0 then return BLOCK.dirt end
  return BLOCK.air
end
`)
	a, err := NewScriptGenerator(path, 5, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewScriptGenerator(path, 5, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	for x := 0; x < 20; x++ {
		if a.Sample(x, x/2, -x) != b.Sample(x, x/2, -x) {
			t.Fatalf("script samples differ at x=%d", x)
		}
	}
}

func TestScriptSimplexHelper(t *testing.T) {
	path := writeScript(t, `
function sample(x, y, z)
  return BLOCK.stone, math.floor((simplex3(x / 5, y / 5, z / 5) + 1) * 7)
end
`)
	g, err := NewScriptGenerator(path, 5, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	s := noise.NewSimplex(5)
	for x := -10; x < 10; x++ {
		y, z := x*3, 7-x
		want := uint8(math.Floor((s.Noise3D(float64(x)/5, float64(y)/5, float64(z)/5) + 1) * 7))
		if got := g.Sample(x, y, z); got.Block != chunk.Stone || got.Light != want {
			t.Errorf("Sample(%d, %d, %d) = %+v, want stone with light %d", x, y, z, got, want)
		}
	}
	if g.Failures() != 0 {
		t.Errorf("failures = %d", g.Failures())
	}
}

func TestScriptErrorsFallBackToAir(t *testing.T) {
	path := writeScript(t, `function sample(x, y, z) error("boom") end`)
	g, err := NewScriptGenerator(path, 1, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	if got := g.Sample(0, 0, 0).Block; got != chunk.Air {
		t.Errorf("got %v, want air", got)
	}
	if g.Failures() != 1 {
		t.Errorf("failures = %d, want 1", g.Failures())
	}
}

func TestScriptMissingFunction(t *testing.T) {
	path := writeScript(t, `x = 1`)
	if _, err := NewScriptGenerator(path, 1, zap.NewNop()); err == nil {
		t.Error("expected error for script without sample()")
	}
}

func TestNewSelectsKind(t *testing.T) {
	g, err := New(Options{Kind: KindFlat}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*FlatGenerator); !ok {
		t.Errorf("got %T", g)
	}
	if _, err := New(Options{Kind: "voronoi"}, zap.NewNop()); err == nil {
		t.Error("expected error for unknown kind")
	}
}
