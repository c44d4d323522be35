package noise

// Simplex noise after Ken Perlin's simplex construction, output in [-1, 1].

var grad3 = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

// Simplex produces seeded simplex noise. It is immutable after construction
// and safe to share.
type Simplex struct {
	perm [512]uint8
}

// NewSimplex builds the doubled permutation table for seed.
func NewSimplex(seed int64) *Simplex {
	s := &Simplex{}

	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
	}

	// Fisher-Yates driven by a SplitMix stream.
	state := uint64(seed)
	for i := 255; i > 0; i-- {
		state += 0x9e3779b97f4a7c15
		j := int(Mix64(state) % uint64(i+1))
		p[i], p[j] = p[j], p[i]
	}

	for i := range s.perm {
		s.perm[i] = p[i&255]
	}
	return s
}

// Noise2D returns 2D simplex noise in [-1, 1].
func (s *Simplex) Noise2D(x, y float64) float64 {
	const (
		f2 = 0.36602540378443864676 // (sqrt(3) - 1) / 2
		g2 = 0.21132486540518711775 // (3 - sqrt(3)) / 6
	)

	sk := (x + y) * f2
	i := fastFloor(x + sk)
	j := fastFloor(y + sk)

	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1.0 + 2.0*g2
	y2 := y0 - 1.0 + 2.0*g2

	ii := i & 255
	jj := j & 255
	gi0 := int(s.perm[ii+int(s.perm[jj])]) % 12
	gi1 := int(s.perm[ii+i1+int(s.perm[jj+j1])]) % 12
	gi2 := int(s.perm[ii+1+int(s.perm[jj+1])]) % 12

	n := corner2(grad3[gi0], x0, y0) + corner2(grad3[gi1], x1, y1) + corner2(grad3[gi2], x2, y2)
	return 70.0 * n
}

// Noise3D returns 3D simplex noise in [-1, 1].
func (s *Simplex) Noise3D(x, y, z float64) float64 {
	const (
		f3 = 1.0 / 3.0
		g3 = 1.0 / 6.0
	)

	sk := (x + y + z) * f3
	i := fastFloor(x + sk)
	j := fastFloor(y + sk)
	k := fastFloor(z + sk)

	t := float64(i+j+k) * g3
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)
	z0 := z - (float64(k) - t)

	var i1, j1, k1, i2, j2, k2 int
	switch {
	case x0 >= y0 && y0 >= z0:
		i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 1, 0
	case x0 >= y0 && x0 >= z0:
		i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 0, 1
	case x0 >= y0:
		i1, j1, k1, i2, j2, k2 = 0, 0, 1, 1, 0, 1
	case y0 < z0:
		i1, j1, k1, i2, j2, k2 = 0, 0, 1, 0, 1, 1
	case x0 < z0:
		i1, j1, k1, i2, j2, k2 = 0, 1, 0, 0, 1, 1
	default:
		i1, j1, k1, i2, j2, k2 = 0, 1, 0, 1, 1, 0
	}

	x1 := x0 - float64(i1) + g3
	y1 := y0 - float64(j1) + g3
	z1 := z0 - float64(k1) + g3
	x2 := x0 - float64(i2) + 2.0*g3
	y2 := y0 - float64(j2) + 2.0*g3
	z2 := z0 - float64(k2) + 2.0*g3
	x3 := x0 - 1.0 + 3.0*g3
	y3 := y0 - 1.0 + 3.0*g3
	z3 := z0 - 1.0 + 3.0*g3

	ii := i & 255
	jj := j & 255
	kk := k & 255
	p := &s.perm
	gi0 := int(p[ii+int(p[jj+int(p[kk])])]) % 12
	gi1 := int(p[ii+i1+int(p[jj+j1+int(p[kk+k1])])]) % 12
	gi2 := int(p[ii+i2+int(p[jj+j2+int(p[kk+k2])])]) % 12
	gi3 := int(p[ii+1+int(p[jj+1+int(p[kk+1])])]) % 12

	n := corner3(grad3[gi0], x0, y0, z0) +
		corner3(grad3[gi1], x1, y1, z1) +
		corner3(grad3[gi2], x2, y2, z2) +
		corner3(grad3[gi3], x3, y3, z3)
	return 32.0 * n
}

func corner2(g [3]float64, x, y float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	t *= t
	return t * t * (g[0]*x + g[1]*y)
}

func corner3(g [3]float64, x, y, z float64) float64 {
	t := 0.6 - x*x - y*y - z*z
	if t < 0 {
		return 0
	}
	t *= t
	return t * t * (g[0]*x + g[1]*y + g[2]*z)
}
