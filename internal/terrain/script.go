package terrain

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/noise"
)

const sampleFunc = "sample"

// ScriptGenerator delegates Sample to a Lua function:
//
//	function sample(x, y, z) return block, light end
//
// block is an id or a name from the global BLOCK table; light defaults to
// MaxLight for air and 0 otherwise. The script sees SEED and the pure noise
// helpers noise2(x, z), noise3(x, y, z), simplex3(x, y, z) and
// fractal2(x, z, octaves, persistence), so scripts stay deterministic as long as they keep no state
// between calls.
//
// Single-goroutine access only.
type ScriptGenerator struct {
	vm       *lua.LState
	fn       lua.LValue
	path     string
	log      *zap.Logger
	errLog   rate.Sometimes
	failures int
}

// NewScriptGenerator loads the script at path.
func NewScriptGenerator(path string, seed int64, log *zap.Logger) (*ScriptGenerator, error) {
	if path == "" {
		return nil, fmt.Errorf("script generator needs a script path")
	}
	vm := lua.NewState()

	field := noise.NewGradient(seed)
	vm.SetGlobal("SEED", lua.LNumber(seed))
	vm.SetGlobal("noise2", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(field.Noise2D(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))))
		return 1
	}))
	vm.SetGlobal("noise3", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(field.Noise3D(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))))
		return 1
	}))
	simplex := noise.NewSimplex(seed)
	vm.SetGlobal("simplex3", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(simplex.Noise3D(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))))
		return 1
	}))
	vm.SetGlobal("fractal2", vm.NewFunction(func(L *lua.LState) int {
		o := noise.Octaves{Count: L.OptInt(3, 4), Persistence: float64(L.OptNumber(4, 0.5))}
		L.Push(lua.LNumber(noise.Fractal2D(field, float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), o)))
		return 1
	}))

	blocks := vm.NewTable()
	for id := chunk.BlockID(0); id.Known(); id++ {
		blocks.RawSetString(id.String(), lua.LNumber(id))
	}
	vm.SetGlobal("BLOCK", blocks)

	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	fn := vm.GetGlobal(sampleFunc)
	if fn.Type() != lua.LTFunction {
		vm.Close()
		return nil, fmt.Errorf("%s: lua function %s not defined", path, sampleFunc)
	}
	log.Debug("loaded terrain script", zap.String("file", path))

	return &ScriptGenerator{
		vm:     vm,
		fn:     fn,
		path:   path,
		log:    log,
		errLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}, nil
}

// Sample implements Generator. Script errors yield air and are logged at a
// throttled rate.
func (g *ScriptGenerator) Sample(x, y, z int) Sample {
	if err := g.vm.CallByParam(lua.P{
		Fn:      g.fn,
		NRet:    2,
		Protect: true,
	}, lua.LNumber(x), lua.LNumber(y), lua.LNumber(z)); err != nil {
		g.fail("lua sample error", zap.Error(err))
		return Sample{Block: chunk.Air, Light: MaxLight}
	}
	ret, lightVal := g.vm.Get(-2), g.vm.Get(-1)
	g.vm.Pop(2)

	var id chunk.BlockID
	switch v := ret.(type) {
	case lua.LNumber:
		id = chunk.BlockID(v)
	case lua.LString:
		parsed, err := chunk.ParseBlockID(string(v))
		if err != nil {
			g.fail("lua sample returned unknown block", zap.String("block", string(v)))
			return Sample{Block: chunk.Air, Light: MaxLight}
		}
		id = parsed
	default:
		id = chunk.Air
	}
	if !id.Known() {
		g.fail("lua sample returned unknown block", zap.Uint16("block", uint16(id)))
		id = chunk.Air
	}

	light := uint8(0)
	if id == chunk.Air {
		light = MaxLight
	}
	if n, ok := lightVal.(lua.LNumber); ok {
		light = uint8(min(max(int(n), 0), MaxLight))
	}
	return Sample{Block: id, Light: light}
}

// Failures returns how many samples fell back to air.
func (g *ScriptGenerator) Failures() int { return g.failures }

func (g *ScriptGenerator) fail(msg string, fields ...zap.Field) {
	g.failures++
	g.errLog.Do(func() {
		g.log.Error(msg, append(fields, zap.String("file", g.path), zap.Int("failures", g.failures))...)
	})
}

// Close shuts down the Lua VM.
func (g *ScriptGenerator) Close() error {
	g.vm.Close()
	return nil
}
