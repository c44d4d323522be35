package noise

// Field2D is any 2D coherent noise source.
type Field2D interface {
	Noise2D(x, y float64) float64
}

// Field3D is any 3D coherent noise source.
type Field3D interface {
	Noise3D(x, y, z float64) float64
}

// Octaves controls fractal summation. Zero Lacunarity means 2.
type Octaves struct {
	Count       int     `yaml:"count"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
}

func (o Octaves) lacunarity() float64 {
	if o.Lacunarity == 0 {
		return 2
	}
	return o.Lacunarity
}

// Fractal2D layers o.Count octaves of f and normalises by the amplitude sum,
// so the result stays within the range of f.
func Fractal2D(f Field2D, x, y float64, o Octaves) float64 {
	var total, norm float64
	amplitude, frequency := 1.0, 1.0
	for range o.Count {
		total += f.Noise2D(x*frequency, y*frequency) * amplitude
		norm += amplitude
		amplitude *= o.Persistence
		frequency *= o.lacunarity()
	}
	if norm == 0 {
		return 0
	}
	return total / norm
}

// Fractal3D is the 3D counterpart of Fractal2D.
func Fractal3D(f Field3D, x, y, z float64, o Octaves) float64 {
	var total, norm float64
	amplitude, frequency := 1.0, 1.0
	for range o.Count {
		total += f.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= o.Persistence
		frequency *= o.lacunarity()
	}
	if norm == 0 {
		return 0
	}
	return total / norm
}
