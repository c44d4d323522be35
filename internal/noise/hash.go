// Package noise provides the deterministic pseudo-random and coherent noise
// primitives terrain generation is built on. Every function here is a pure
// function of its seed and coordinates.
package noise

// Mix64 is the SplitMix64 finaliser.
func Mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 hashes a seeded 2D lattice point.
func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	return Mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9))
}

// Hash3 hashes a seeded 3D lattice point.
func Hash3(seed int64, x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	return Mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9))
}

// Unit maps a hash to [0, 1).
func Unit(h uint64) float64 {
	return float64(h>>11) / float64(1<<53)
}

// Derive returns an independent seed for a named channel. Channels sharing a
// world seed never share a permutation.
func Derive(seed int64, channel uint64) int64 {
	return int64(Mix64(uint64(seed) ^ Mix64(channel)))
}

func fastFloor(x float64) int {
	xi := int(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}
