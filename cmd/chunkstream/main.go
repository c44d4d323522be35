package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/config"
	"github.com/OCharnyshevich/chunkstream/internal/logging"
	"github.com/OCharnyshevich/chunkstream/internal/mesh"
	"github.com/OCharnyshevich/chunkstream/internal/physics"
	"github.com/OCharnyshevich/chunkstream/internal/sim"
	"github.com/OCharnyshevich/chunkstream/internal/storage"
	"github.com/OCharnyshevich/chunkstream/internal/terrain"
	"github.com/OCharnyshevich/chunkstream/internal/world"
)

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "chunkstream.toml", "config file path")
	frames := flag.Int("frames", 3600, "frames to simulate (0 = until interrupted)")
	route := flag.String("route", "walk", "observer route: walk or teleport")
	statsEvery := flag.Int("stats-every", 120, "log window stats every N frames")

	flag.IntVar(&cfg.World.RenderDistance, "render-distance", cfg.World.RenderDistance, "render distance in chunks")
	flag.Int64Var(&cfg.World.Seed, "seed", cfg.World.Seed, "terrain seed")
	flag.StringVar(&cfg.World.Generator, "generator", cfg.World.Generator, "terrain generator: default, flat or script")
	flag.StringVar(&cfg.World.Preset, "preset", cfg.World.Preset, "YAML terrain preset")
	flag.StringVar(&cfg.World.Script, "script", cfg.World.Script, "Lua terrain script")
	flag.StringVar(&cfg.World.DataDir, "data-dir", cfg.World.DataDir, "lookup caches and saved chunks")
	flag.IntVar(&cfg.World.WorldRadius, "world-radius", cfg.World.WorldRadius, "wraparound radius in chunks (0 = infinite)")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "debug, info, warn or error")
	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fromFile, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.Merge(cfg, fromFile, explicit)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config:\n%v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *frames, *route, *statsEvery, log); err != nil {
		log.Error("chunkstream error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, frames int, route string, statsEvery int, log *zap.Logger) error {
	gen, err := terrain.New(terrain.Options{
		Kind:   terrain.Kind(cfg.World.Generator),
		Seed:   cfg.World.Seed,
		Preset: cfg.World.Preset,
		Script: cfg.World.Script,
	}, log.Named("terrain"))
	if err != nil {
		return fmt.Errorf("build generator: %w", err)
	}

	store, err := storage.OpenBlockStore(filepath.Join(cfg.World.DataDir, "chunks"), log.Named("storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	up := mesh.NewMemoryUploader(0)
	w, err := world.New(cfg, world.Deps{Generator: gen, Uploader: up, Store: store, Log: log})
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Warn("close world", zap.Error(err))
		}
	}()

	solver := physics.NewSolver(cfg.Physics, cfg.World.WorldRadius)
	spawnY := terrain.SpawnHeight(gen, 0, 0, 256, -256)
	obs := sim.NewObserver(solver.NewBody(mgl64.Vec3{0.5, float64(spawnY), 0.5}), cfg.Physics)
	log.Info("spawned observer", zap.Int("y", spawnY), zap.Stringer("chunk", obs.Chunk()))

	clock := &sim.FixedClock{Step: time.Second / 60}
	input := &sim.Script{Held: map[sim.Key]bool{sim.KeyForward: true, sim.KeyJump: true}, DX: 0.5}
	s := sim.New(w, solver, obs, clock, input, log)

	hop := float64(2*cfg.World.RenderDistance+1) * 16 * 2
	for frames == 0 || s.Frames() < frames {
		select {
		case <-ctx.Done():
			log.Info("interrupted", zap.Int("frames", s.Frames()))
			return nil
		default:
		}

		clock.Tick()
		if route == "teleport" && s.Frames() > 0 && s.Frames()%600 == 0 {
			obs.Body.Pos[0] += hop
			obs.Body.Pos[1] = float64(terrain.SpawnHeight(gen, int(math.Floor(obs.Body.Pos[0])), int(math.Floor(obs.Body.Pos[2])), 256, -256))
			obs.Body.Vel = mgl64.Vec3{}
			log.Info("teleported", zap.Stringer("chunk", obs.Chunk()))
		}
		s.Frame()

		if statsEvery > 0 && s.Frames()%statsEvery == 0 {
			st := w.Stats()
			resident, bytes, _, _ := up.Stats()
			centreBytes := 0
			if c := w.ChunkResolved(w.Centre()); c != nil {
				if r, ok := up.Lookup(c.Mesh); ok {
					centreBytes = r.Bytes
				}
			}
			log.Info("frame",
				zap.Int("frame", s.Frames()),
				zap.Stringer("centre", w.Centre()),
				zap.Int("live", st.Live),
				zap.Int("generated", st.Generated),
				zap.Int("rendered", st.Rendered),
				zap.Ints("queued", st.Queued[:]),
				zap.Int("dropped", st.Dropped),
				zap.Int("meshes", resident),
				zap.Int("mesh_bytes", bytes),
				zap.Int("centre_mesh_bytes", centreBytes),
				zap.Float64("health", obs.Body.Health))
		}
	}
	log.Info("done", zap.Int("frames", s.Frames()), zap.Int("held", s.Held()))
	return nil
}
