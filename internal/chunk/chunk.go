// Package chunk holds the voxel grid unit of generation, meshing and loading,
// and the bounded pool that owns every live chunk.
package chunk

import "fmt"

const (
	// Size is the edge length of a chunk in blocks.
	Size = 16
	// Area is the number of blocks in one horizontal layer.
	Area = Size * Size
	// Volume is the number of blocks in a chunk.
	Volume = Size * Size * Size
)

// Pos identifies a chunk in chunk-space coordinates.
type Pos struct{ X, Y, Z int }

// Add returns p offset by (dx, dy, dz).
func (p Pos) Add(dx, dy, dz int) Pos {
	return Pos{p.X + dx, p.Y + dy, p.Z + dz}
}

// Sub returns the per-axis difference p - q.
func (p Pos) Sub(q Pos) Pos {
	return Pos{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Key packs the position into a 64-bit hash using 21 bits per axis.
func (p Pos) Key() uint64 {
	const m = 1<<21 - 1
	return uint64(p.X)&m | (uint64(p.Y)&m)<<21 | (uint64(p.Z)&m)<<42
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Origin returns the world block coordinate of the chunk's (0,0,0) corner.
func (p Pos) Origin() (x, y, z int) {
	return p.X * Size, p.Y * Size, p.Z * Size
}

// PosOf returns the chunk containing world block (x, y, z).
func PosOf(x, y, z int) Pos {
	return Pos{FloorDiv(x, Size), FloorDiv(y, Size), FloorDiv(z, Size)}
}

// Local returns the in-chunk coordinates of world block (x, y, z).
func Local(x, y, z int) (lx, ly, lz int) {
	return Mod(x, Size), Mod(y, Size), Mod(z, Size)
}

// Flags is the chunk state bit set.
type Flags uint8

const (
	Loaded Flags = 1 << iota
	Generated
	Dirty
	Render
	Queued
	Edge
	Modified
)

func (f Flags) Has(mask Flags) bool { return f&mask == mask }

func (f Flags) String() string {
	names := [...]string{"LOADED", "GENERATED", "DIRTY", "RENDER", "QUEUED", "EDGE", "MODIFIED"}
	s := ""
	for i, n := range names {
		if f&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n
	}
	if s == "" {
		return "0"
	}
	return s
}

// MeshHandle is an opaque reference to uploaded mesh data. Zero means none.
type MeshHandle uint64

// Chunk is a cubic voxel grid plus its generation cursor.
type Chunk struct {
	ID     ID
	Pos    Pos
	Flags  Flags
	Cursor int
	Mesh   MeshHandle
	Color  uint32

	// Ring cell holding this chunk while Queued is set.
	QueueTier int
	QueueCell int

	Blocks [Volume]Block
}

// Index returns the block index of local (x, y, z): x fastest, then z, then y.
func Index(x, y, z int) int {
	return x + z*Size + y*Area
}

// Coords decomposes a block index back into local coordinates.
func Coords(i int) (x, y, z int) {
	return i % Size, i / Area, (i / Size) % Size
}

// InBounds reports whether local (x, y, z) lies inside a chunk.
func InBounds(x, y, z int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size && z >= 0 && z < Size
}

// Get returns the block at local (x, y, z).
func (c *Chunk) Get(x, y, z int) Block {
	return c.Blocks[Index(x, y, z)]
}

// Set stores the block at local (x, y, z).
func (c *Chunk) Set(x, y, z int, b Block) {
	c.Blocks[Index(x, y, z)] = b
}

// HasGenerated reports whether the block at index i has been written by the
// generator, either because the chunk is complete or the cursor passed it.
func (c *Chunk) HasGenerated(i int) bool {
	return c.Flags.Has(Generated) || i < c.Cursor
}

// MarkDirty flags the chunk for re-meshing.
func (c *Chunk) MarkDirty() {
	c.Flags |= Dirty
}

// reset zeroes the chunk for a new identity.
func (c *Chunk) reset(id ID, pos Pos) {
	*c = Chunk{ID: id, Pos: pos, Flags: Loaded | Dirty, QueueTier: -1, QueueCell: -1}
}

// FloorDiv divides rounding toward negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Mod returns a non-negative remainder. b must be positive.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
