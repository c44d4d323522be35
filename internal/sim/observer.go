package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/config"
	"github.com/OCharnyshevich/chunkstream/internal/physics"
)

const maxPitch = math.Pi/2 - 0.01

// Observer turns input into body velocity. Yaw 0 looks down -Z.
type Observer struct {
	Body  *physics.Body
	Yaw   float64
	Pitch float64
	cfg   config.PhysicsConfig
}

// NewObserver wraps body with the controls from cfg.
func NewObserver(body *physics.Body, cfg config.PhysicsConfig) *Observer {
	return &Observer{Body: body, cfg: cfg}
}

// Apply reads one frame of input. A dead body ignores input.
func (o *Observer) Apply(in Input) {
	if o.Body.Dead {
		return
	}
	dx, dy := in.CursorDelta()
	o.Yaw = math.Mod(o.Yaw+dx*o.cfg.Sensitivity, 2*math.Pi)
	o.Pitch = mgl64.Clamp(o.Pitch-dy*o.cfg.Sensitivity, -maxPitch, maxPitch)

	forward := mgl64.Vec2{-math.Sin(o.Yaw), -math.Cos(o.Yaw)}
	right := mgl64.Vec2{math.Cos(o.Yaw), -math.Sin(o.Yaw)}
	var move mgl64.Vec2
	if in.KeyHeld(KeyForward) {
		move = move.Add(forward)
	}
	if in.KeyHeld(KeyBack) {
		move = move.Sub(forward)
	}
	if in.KeyHeld(KeyRight) {
		move = move.Add(right)
	}
	if in.KeyHeld(KeyLeft) {
		move = move.Sub(right)
	}
	if move.Len() > 0 {
		move = move.Normalize().Mul(o.cfg.WalkSpeed)
		o.Body.Vel[0], o.Body.Vel[2] = move.X(), move.Y()
	}
	if in.KeyHeld(KeyJump) && o.Body.OnGround {
		o.Body.Vel[1] = o.cfg.JumpSpeed
	}
}

// Eye returns the camera position.
func (o *Observer) Eye() mgl64.Vec3 {
	return o.Body.Pos.Add(mgl64.Vec3{0, o.cfg.EyeHeight, 0})
}

// Look returns the unit view direction.
func (o *Observer) Look() mgl64.Vec3 {
	cp := math.Cos(o.Pitch)
	return mgl64.Vec3{-math.Sin(o.Yaw) * cp, math.Sin(o.Pitch), -math.Cos(o.Yaw) * cp}
}

// Chunk returns the chunk containing the observer's feet.
func (o *Observer) Chunk() chunk.Pos {
	p := o.Body.Pos
	return chunk.PosOf(int(math.Floor(p.X())), int(math.Floor(p.Y())), int(math.Floor(p.Z())))
}
