// Package physics resolves an axis-aligned body's motion against solid
// blocks with a swept AABB test.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// BodyBox returns the box of a body standing at feet with the given size.
func BodyBox(feet mgl64.Vec3, width, height float64) AABB {
	h := width / 2
	return AABB{
		Min: mgl64.Vec3{feet.X() - h, feet.Y(), feet.Z() - h},
		Max: mgl64.Vec3{feet.X() + h, feet.Y() + height, feet.Z() + h},
	}
}

// BlockBox returns the unit cube of block (x, y, z).
func BlockBox(x, y, z int) AABB {
	lo := mgl64.Vec3{float64(x), float64(y), float64(z)}
	return AABB{Min: lo, Max: lo.Add(mgl64.Vec3{1, 1, 1})}
}

// Translate returns a moved by d.
func (a AABB) Translate(d mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

// Union returns the smallest box containing a and b.
func (a AABB) Union(b AABB) AABB {
	var u AABB
	for i := range 3 {
		u.Min[i] = math.Min(a.Min[i], b.Min[i])
		u.Max[i] = math.Max(a.Max[i], b.Max[i])
	}
	return u
}

// Expand grows a by pad on every side.
func (a AABB) Expand(pad float64) AABB {
	p := mgl64.Vec3{pad, pad, pad}
	return AABB{Min: a.Min.Sub(p), Max: a.Max.Add(p)}
}

// Intersects reports whether a and b overlap with positive volume.
func (a AABB) Intersects(b AABB) bool {
	for i := range 3 {
		if a.Max[i] <= b.Min[i] || a.Min[i] >= b.Max[i] {
			return false
		}
	}
	return true
}

// Sweep moves a by d against the static box b. It returns the fraction of d
// travelled before contact and the contact normal. No contact within this
// step yields entry 1 and a zero normal.
//
// Axes without displacement use -Inf/+Inf entry and exit times when the
// boxes overlap on them, so they never decide the contact.
func Sweep(a AABB, d mgl64.Vec3, b AABB) (entry float64, normal mgl64.Vec3) {
	var entries, exits [3]float64
	for i := range 3 {
		switch {
		case d[i] > 0:
			entries[i] = (b.Min[i] - a.Max[i]) / d[i]
			exits[i] = (b.Max[i] - a.Min[i]) / d[i]
		case d[i] < 0:
			entries[i] = (b.Max[i] - a.Min[i]) / d[i]
			exits[i] = (b.Min[i] - a.Max[i]) / d[i]
		default:
			if a.Max[i] <= b.Min[i] || a.Min[i] >= b.Max[i] {
				return 1, mgl64.Vec3{}
			}
			entries[i] = math.Inf(-1)
			exits[i] = math.Inf(1)
		}
	}

	axis := 0
	for i := 1; i < 3; i++ {
		if entries[i] > entries[axis] {
			axis = i
		}
	}
	entry = entries[axis]
	exit := math.Min(exits[0], math.Min(exits[1], exits[2]))
	if entry > exit || entry < 0 || entry > 1 {
		return 1, mgl64.Vec3{}
	}
	normal[axis] = -math.Copysign(1, d[axis])
	return entry, normal
}
