package physics

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/config"
)

// Terrain resolves blocks by world coordinates. ok is false for blocks whose
// chunk is missing or not yet generated; those never collide.
type Terrain interface {
	BlockResolved(x, y, z int) (b chunk.Block, ok bool)
}

// Body is a moving box whose position is the centre of its base.
type Body struct {
	Pos      mgl64.Vec3
	Vel      mgl64.Vec3
	Width    float64
	Height   float64
	Health   float64
	Dead     bool
	OnGround bool
	Friction float64 // friction of the block last stood on
}

// Box returns the body's current bounds.
func (b *Body) Box() AABB {
	return BodyBox(b.Pos, b.Width, b.Height)
}

// Solver integrates gravity and resolves collisions.
type Solver struct {
	cfg    config.PhysicsConfig
	radius float64 // wrap limit in blocks, 0 disables wrapping
}

// NewSolver builds a solver. worldRadius is in chunks; 0 means unbounded.
func NewSolver(cfg config.PhysicsConfig, worldRadius int) *Solver {
	return &Solver{cfg: cfg, radius: float64(worldRadius * chunk.Size)}
}

// NewBody returns a full-health body at feet sized from the config.
func (s *Solver) NewBody(feet mgl64.Vec3) *Body {
	return &Body{
		Pos:    feet,
		Width:  s.cfg.Width,
		Height: s.cfg.Height,
		Health: s.cfg.MaxHealth,
	}
}

type candidate struct {
	box AABB
	key int
	id  chunk.BlockID
}

// Step advances body by dt seconds.
func (s *Solver) Step(t Terrain, body *Body, dt float64) {
	body.Vel[1] -= s.cfg.Gravity * dt
	disp := body.Vel.Mul(dt)
	box := body.Box()
	body.OnGround = false

	for pass := 0; pass < s.cfg.Passes && disp != (mgl64.Vec3{}); pass++ {
		cands := s.candidates(t, box, disp)
		best, normal := 1.0, mgl64.Vec3{}
		var hit candidate
		for _, c := range cands {
			if e, n := Sweep(box, disp, c.box); e < best {
				best, normal, hit = e, n, c
			}
		}

		box = box.Translate(disp.Mul(best))
		if normal == (mgl64.Vec3{}) {
			disp = mgl64.Vec3{}
			break
		}

		// Snap onto the contact plane so rounding never leaves the box
		// inside the block it hit.
		axis := normalAxis(normal)
		if normal[axis] > 0 {
			box = box.Translate(axisVec(axis, hit.box.Max[axis]-box.Min[axis]))
		} else {
			box = box.Translate(axisVec(axis, hit.box.Min[axis]-box.Max[axis]))
		}
		disp = disp.Mul(1 - best)
		disp[axis] = 0
		s.impact(body, math.Abs(body.Vel[axis]))
		body.Vel[axis] = 0
		if normal[1] > 0 {
			body.OnGround = true
			body.Friction = hit.id.Friction()
		}
	}
	// Displacement left after the last pass is discarded rather than risk
	// moving through an unresolved block.

	body.Pos = mgl64.Vec3{(box.Min[0] + box.Max[0]) / 2, box.Min[1], (box.Min[2] + box.Max[2]) / 2}

	friction := s.cfg.AirFriction
	if body.OnGround {
		friction = body.Friction
	}
	damp := math.Pow(1-friction, dt*60)
	body.Vel[0] *= damp
	body.Vel[2] *= damp

	s.Wrap(body)
}

// impact applies damage for velocity lost in a single collision.
func (s *Solver) impact(body *Body, lost float64) {
	if lost <= s.cfg.DamageThreshold || body.Dead {
		return
	}
	body.Health -= (lost - s.cfg.DamageThreshold) * s.cfg.DamageScale
	if body.Health <= 0 {
		body.Health = 0
		body.Dead = true
	}
}

// Wrap translates body across the world edge when it leaves the square of
// the configured radius. Velocity is unchanged.
func (s *Solver) Wrap(body *Body) {
	if s.radius <= 0 {
		return
	}
	for _, i := range []int{0, 2} {
		switch {
		case body.Pos[i] >= s.radius:
			body.Pos[i] -= 2 * s.radius
		case body.Pos[i] < -s.radius:
			body.Pos[i] += 2 * s.radius
		}
	}
}

// candidates returns the solid blocks inside the swept capsule, padded by
// one block, nearest first along the dominant axis of disp.
func (s *Solver) candidates(t Terrain, box AABB, disp mgl64.Vec3) []candidate {
	capsule := box.Union(box.Translate(disp)).Expand(1)
	axis := dominantAxis(disp)
	dir := 1
	if disp[axis] < 0 {
		dir = -1
	}

	lo := [3]int{}
	hi := [3]int{}
	for i := range 3 {
		lo[i] = int(math.Floor(capsule.Min[i]))
		hi[i] = int(math.Floor(capsule.Max[i]))
	}

	var out []candidate
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				b, ok := t.BlockResolved(x, y, z)
				if !ok || !b.Solid() {
					continue
				}
				p := [3]int{x, y, z}
				out = append(out, candidate{box: BlockBox(x, y, z), key: p[axis] * dir, id: b.ID()})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b candidate) int { return cmp.Compare(a.key, b.key) })
	return out
}

func dominantAxis(v mgl64.Vec3) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[axis]) {
			axis = i
		}
	}
	return axis
}

func axisVec(axis int, v float64) mgl64.Vec3 {
	var out mgl64.Vec3
	out[axis] = v
	return out
}

func normalAxis(n mgl64.Vec3) int {
	for i := range 3 {
		if n[i] != 0 {
			return i
		}
	}
	return 0
}
