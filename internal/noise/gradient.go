package noise

import "math"

const diag = math.Sqrt2 / 2

var grad2 = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{diag, diag}, {-diag, diag}, {diag, -diag}, {-diag, -diag},
}

// Gradient is lattice gradient noise with cubic Hermite interpolation, which
// keeps the field C¹ continuous across cell boundaries. Gradients are picked by
// hashing lattice coordinates, so no permutation table is held and the domain
// does not repeat every 256 cells.
type Gradient struct {
	seed int64
}

// NewGradient returns a gradient noise field for seed.
func NewGradient(seed int64) Gradient {
	return Gradient{seed: seed}
}

// Noise2D returns 2D gradient noise in [-1, 1].
func (g Gradient) Noise2D(x, y float64) float64 {
	x0 := fastFloor(x)
	y0 := fastFloor(y)
	fx := x - float64(x0)
	fy := y - float64(y0)

	n00 := g.dot2(x0, y0, fx, fy)
	n10 := g.dot2(x0+1, y0, fx-1, fy)
	n01 := g.dot2(x0, y0+1, fx, fy-1)
	n11 := g.dot2(x0+1, y0+1, fx-1, fy-1)

	u := Cubic(fx)
	v := Cubic(fy)
	return clamp1(math.Sqrt2 * lerp(lerp(n00, n10, u), lerp(n01, n11, u), v))
}

// Noise3D returns 3D gradient noise in [-1, 1].
func (g Gradient) Noise3D(x, y, z float64) float64 {
	x0 := fastFloor(x)
	y0 := fastFloor(y)
	z0 := fastFloor(z)
	fx := x - float64(x0)
	fy := y - float64(y0)
	fz := z - float64(z0)

	u := Cubic(fx)
	v := Cubic(fy)
	w := Cubic(fz)

	n000 := g.dot3(x0, y0, z0, fx, fy, fz)
	n100 := g.dot3(x0+1, y0, z0, fx-1, fy, fz)
	n010 := g.dot3(x0, y0+1, z0, fx, fy-1, fz)
	n110 := g.dot3(x0+1, y0+1, z0, fx-1, fy-1, fz)
	n001 := g.dot3(x0, y0, z0+1, fx, fy, fz-1)
	n101 := g.dot3(x0+1, y0, z0+1, fx-1, fy, fz-1)
	n011 := g.dot3(x0, y0+1, z0+1, fx, fy-1, fz-1)
	n111 := g.dot3(x0+1, y0+1, z0+1, fx-1, fy-1, fz-1)

	a := lerp(lerp(n000, n100, u), lerp(n010, n110, u), v)
	b := lerp(lerp(n001, n101, u), lerp(n011, n111, u), v)
	return clamp1(lerp(a, b, w))
}

func (g Gradient) dot2(ix, iy int, dx, dy float64) float64 {
	gr := grad2[Hash2(g.seed, ix, iy)&7]
	return gr[0]*dx + gr[1]*dy
}

func (g Gradient) dot3(ix, iy, iz int, dx, dy, dz float64) float64 {
	gr := grad3[Hash3(g.seed, ix, iy, iz)%12]
	return gr[0]*dx + gr[1]*dy + gr[2]*dz
}

// Cubic is the Hermite smoothstep 3t² - 2t³; its derivative vanishes at 0 and 1.
func Cubic(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func clamp1(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
