// Package sim drives one observer through a streaming world frame by frame.
package sim

import "time"

// Key is a movement control.
type Key int

const (
	KeyForward Key = iota
	KeyBack
	KeyLeft
	KeyRight
	KeyJump
)

// Input is the window system's key and cursor state for the current frame.
type Input interface {
	KeyHeld(k Key) bool
	CursorDelta() (dx, dy float64)
}

// Clock reports elapsed time since start and the length of the last frame.
type Clock interface {
	Now() time.Duration
	Delta() time.Duration
}

// FixedClock advances by Step on every Tick.
type FixedClock struct {
	Step time.Duration
	now  time.Duration
}

func (c *FixedClock) Tick()                { c.now += c.Step }
func (c *FixedClock) Now() time.Duration   { return c.now }
func (c *FixedClock) Delta() time.Duration { return c.Step }

// Script is an Input that holds a fixed set of keys and turns at a constant
// cursor rate.
type Script struct {
	Held   map[Key]bool
	DX, DY float64
}

func (s *Script) KeyHeld(k Key) bool            { return s.Held[k] }
func (s *Script) CursorDelta() (dx, dy float64) { return s.DX, s.DY }
