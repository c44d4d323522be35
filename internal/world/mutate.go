package world

import "github.com/OCharnyshevich/chunkstream/internal/chunk"

// PlaceBlockAt puts id at world block (x, y, z). It reports false without
// changing anything when the target is occupied, id is air, or the owning
// chunk is not loaded and fully generated.
func (w *World) PlaceBlockAt(x, y, z int, id chunk.BlockID) bool {
	c := w.ChunkResolved(chunk.PosOf(x, y, z))
	lx, ly, lz := chunk.Local(x, y, z)
	return w.place(c, lx, ly, lz, id)
}

// BreakBlockAt clears world block (x, y, z) to air. It reports false when
// the block is already air or its chunk is not loaded and fully generated.
func (w *World) BreakBlockAt(x, y, z int) bool {
	c := w.ChunkResolved(chunk.PosOf(x, y, z))
	lx, ly, lz := chunk.Local(x, y, z)
	return w.breakBlock(c, lx, ly, lz)
}

// PlaceBlock is PlaceBlockAt addressed by table cell and local coordinates.
// It panics if cell is outside the table.
func (w *World) PlaceBlock(cell, x, y, z int, id chunk.BlockID) bool {
	return w.place(w.pool.Get(w.cell(cell)), x, y, z, id)
}

// BreakBlock is BreakBlockAt addressed by table cell and local coordinates.
// It panics if cell is outside the table.
func (w *World) BreakBlock(cell, x, y, z int) bool {
	return w.breakBlock(w.pool.Get(w.cell(cell)), x, y, z)
}

// CellOf returns the table cell currently holding pos.
func (w *World) CellOf(pos chunk.Pos) (int, bool) {
	return w.indexOf(pos)
}

func editable(c *chunk.Chunk, x, y, z int) bool {
	return c != nil && c.Flags.Has(chunk.Generated) && chunk.InBounds(x, y, z)
}

func (w *World) place(c *chunk.Chunk, x, y, z int, id chunk.BlockID) bool {
	if !editable(c, x, y, z) || id == chunk.Air {
		return false
	}
	i := chunk.Index(x, y, z)
	old := c.Blocks[i]
	if !old.IsAir() {
		return false
	}

	b := chunk.Pack(id, 0, old.Light())
	for _, f := range chunk.Faces {
		nb, nc, ni, ok := w.neighbourBlock(c, x, y, z, f)
		if !ok || nb.IsAir() {
			b = b.WithFace(f, true)
			continue
		}
		w.setBlock(nc, ni, nb.WithFace(f.Opposite(), false), c)
	}
	c.Blocks[i] = b
	c.Flags |= chunk.Dirty | chunk.Modified
	return true
}

func (w *World) breakBlock(c *chunk.Chunk, x, y, z int) bool {
	if !editable(c, x, y, z) {
		return false
	}
	i := chunk.Index(x, y, z)
	old := c.Blocks[i]
	if old.IsAir() {
		return false
	}

	for _, f := range chunk.Faces {
		nb, nc, ni, ok := w.neighbourBlock(c, x, y, z, f)
		if ok && !nb.IsAir() {
			w.setBlock(nc, ni, nb.WithFace(f.Opposite(), true), c)
		}
	}
	c.Blocks[i] = chunk.Pack(chunk.Air, 0, old.Light())
	c.Flags |= chunk.Dirty | chunk.Modified
	return true
}
