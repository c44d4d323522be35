package world

import "github.com/OCharnyshevich/chunkstream/internal/chunk"

// generate samples up to budget further blocks of c from its cursor. Each
// block's face bits are settled against neighbours already generated; the
// rest are left exposed until those neighbours arrive.
func (w *World) generate(c *chunk.Chunk, budget int) {
	ox, oy, oz := c.Pos.Origin()
	for ; budget > 0 && c.Cursor < chunk.Volume; budget-- {
		i := c.Cursor
		x, y, z := chunk.Coords(i)
		s := w.gen.Sample(ox+x, oy+y, oz+z)
		b := chunk.Pack(s.Block, 0, s.Light)
		if !b.IsAir() {
			for _, f := range chunk.Faces {
				nb, nc, ni, ok := w.neighbourBlock(c, x, y, z, f)
				if !ok || nb.IsAir() {
					b = b.WithFace(f, true)
					continue
				}
				// Both sides of a solid boundary are hidden.
				w.setBlock(nc, ni, nb.WithFace(f.Opposite(), false), c)
			}
		}
		c.Blocks[i] = b
		c.Cursor++
	}
	if c.Cursor == chunk.Volume {
		c.Flags |= chunk.Generated
	}
}

// neighbourBlock returns the block across face f of local (x, y, z) in c,
// with its chunk and index. ok is false when that block is not resolved.
func (w *World) neighbourBlock(c *chunk.Chunk, x, y, z int, f chunk.Face) (chunk.Block, *chunk.Chunk, int, bool) {
	dx, dy, dz := f.Dir()
	x, y, z = x+dx, y+dy, z+dz
	nc := c
	if !chunk.InBounds(x, y, z) {
		nc = w.ChunkResolved(c.Pos.Add(dx, dy, dz))
		if nc == nil {
			return 0, nil, 0, false
		}
		x, y, z = chunk.Mod(x, chunk.Size), chunk.Mod(y, chunk.Size), chunk.Mod(z, chunk.Size)
	}
	i := chunk.Index(x, y, z)
	if !nc.HasGenerated(i) {
		return 0, nil, 0, false
	}
	return nc.Blocks[i], nc, i, true
}

// setBlock writes b to index i of nc, marking nc dirty when it is a chunk
// other than owner and the value changed.
func (w *World) setBlock(nc *chunk.Chunk, i int, b chunk.Block, owner *chunk.Chunk) {
	if nc.Blocks[i] == b {
		return
	}
	nc.Blocks[i] = b
	if nc != owner {
		nc.MarkDirty()
	}
}

// stitchFace recomputes the face bits on c's boundary layer facing f, and
// the opposing bits of the neighbour chunk across it. A missing neighbour
// leaves c's faces exposed.
func (w *World) stitchFace(c *chunk.Chunk, f chunk.Face) {
	changed := false
	for u := range chunk.Size {
		for v := range chunk.Size {
			x, y, z := boundary(f, u, v)
			i := chunk.Index(x, y, z)
			if !c.HasGenerated(i) {
				continue
			}
			b := c.Blocks[i]
			nb, nc, ni, ok := w.neighbourBlock(c, x, y, z, f)
			if ok && !nb.IsAir() {
				w.setBlock(nc, ni, nb.WithFace(f.Opposite(), b.IsAir()), c)
			}
			if b.IsAir() {
				continue
			}
			if updated := b.WithFace(f, !ok || nb.IsAir()); updated != b {
				c.Blocks[i] = updated
				changed = true
			}
		}
	}
	if changed {
		c.MarkDirty()
	}
}

// boundary maps (u, v) to the local coordinates of the layer facing f.
func boundary(f chunk.Face, u, v int) (x, y, z int) {
	const last = chunk.Size - 1
	switch f {
	case chunk.FacePosX:
		return last, u, v
	case chunk.FaceNegX:
		return 0, u, v
	case chunk.FacePosY:
		return u, last, v
	case chunk.FaceNegY:
		return u, 0, v
	case chunk.FacePosZ:
		return u, v, last
	default:
		return u, v, 0
	}
}
