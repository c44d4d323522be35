package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/physics"
	"github.com/OCharnyshevich/chunkstream/internal/world"
)

// maxStep bounds one physics step so a stalled frame cannot launch the body
// through the terrain.
const maxStep = 100 * time.Millisecond

// Sim owns the frame loop: input, physics, then world streaming.
// Accessed only from the frame loop goroutine.
type Sim struct {
	World    *world.World
	Solver   *physics.Solver
	Observer *Observer
	clock    Clock
	input    Input
	log      *zap.Logger
	frames   int
	held     int
	wasDead  bool
}

// New builds a frame loop over w.
func New(w *world.World, solver *physics.Solver, obs *Observer, clock Clock, input Input, log *zap.Logger) *Sim {
	return &Sim{
		World:    w,
		Solver:   solver,
		Observer: obs,
		clock:    clock,
		input:    input,
		log:      log.Named("sim"),
	}
}

// Frame runs one frame. The body is held in place until the chunk under
// its feet has been generated.
func (s *Sim) Frame() {
	s.Observer.Apply(s.input)
	if c := s.World.ChunkResolved(s.Observer.Chunk()); c != nil && c.Flags.Has(chunk.Generated) {
		dt := min(s.clock.Delta(), maxStep)
		s.Solver.Step(s.World, s.Observer.Body, dt.Seconds())
	} else {
		s.held++
	}
	s.World.Update(s.Observer.Chunk())
	s.frames++

	if s.Observer.Body.Dead && !s.wasDead {
		s.wasDead = true
		s.log.Info("observer died", zap.Int("frame", s.frames), zap.Duration("at", s.clock.Now()))
	}
}

// Frames returns how many frames have run.
func (s *Sim) Frames() int { return s.frames }

// Held returns how many frames skipped physics waiting for terrain.
func (s *Sim) Held() int { return s.held }
