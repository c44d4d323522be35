package world

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/storage"
)

type axis int

const (
	axisX axis = iota
	axisY
	axisZ
)

type step struct {
	axis axis
	dir  int // +1 or -1
}

// stride returns the flat-index distance between neighbouring cells on a.
func (w *World) stride(a axis) int {
	switch a {
	case axisY:
		return w.n
	case axisZ:
		return w.n * w.n
	default:
		return 1
	}
}

// coords splits table index i into per-axis table coordinates.
func (w *World) coords(i int) (x, y, z int) {
	return i % w.n, (i / w.n) % w.n, i / (w.n * w.n)
}

func (w *World) index(x, y, z int) int {
	if x < 0 || x >= w.n || y < 0 || y >= w.n || z < 0 || z >= w.n {
		panic(fmt.Sprintf("world: table coordinate (%d,%d,%d) outside [0,%d)", x, y, z, w.n))
	}
	return x + y*w.n + z*w.n*w.n
}

func (w *World) cell(i int) chunk.ID {
	if i < 0 || i >= len(w.cells) {
		panic(fmt.Sprintf("world: table index %d outside [0,%d)", i, len(w.cells)))
	}
	return w.cells[i]
}

// indexOf maps a chunk position to its table cell.
func (w *World) indexOf(pos chunk.Pos) (int, bool) {
	x, y, z := pos.X-w.centre.X+w.d, pos.Y-w.centre.Y+w.d, pos.Z-w.centre.Z+w.d
	if x < 0 || x >= w.n || y < 0 || y >= w.n || z < 0 || z >= w.n {
		return 0, false
	}
	return w.index(x, y, z), true
}

// posOf maps a table cell to the chunk position it currently represents.
func (w *World) posOf(i int) chunk.Pos {
	x, y, z := w.coords(i)
	return w.centre.Add(x-w.d, y-w.d, z-w.d)
}

// neighbour returns the cell adjacent to i across face f.
func (w *World) neighbour(i int, f chunk.Face) (int, bool) {
	x, y, z := w.coords(i)
	dx, dy, dz := f.Dir()
	x, y, z = x+dx, y+dy, z+dz
	if x < 0 || x >= w.n || y < 0 || y >= w.n || z < 0 || z >= w.n {
		return 0, false
	}
	return w.index(x, y, z), true
}

// Recentre moves the window centre by delta chunks. Crossings shorter than
// the table edge shift cell references one unit step at a time; anything
// longer drops the whole window.
func (w *World) Recentre(delta chunk.Pos) {
	if delta == (chunk.Pos{}) {
		return
	}
	if abs(delta.X) >= w.n || abs(delta.Y) >= w.n || abs(delta.Z) >= w.n {
		w.log.Debug("teleport", zap.Stringer("from", w.centre), zap.Stringer("delta", delta))
		w.evictAll()
		w.centre = w.centre.Add(delta.X, delta.Y, delta.Z)
		return
	}

	steps := make([]step, 0, abs(delta.X)+abs(delta.Y)+abs(delta.Z))
	for _, s := range []struct {
		a axis
		v int
	}{{axisX, delta.X}, {axisY, delta.Y}, {axisZ, delta.Z}} {
		for range abs(s.v) {
			steps = append(steps, step{axis: s.a, dir: sign(s.v)})
		}
	}
	for len(steps) > 0 {
		s := steps[0]
		steps = steps[1:]
		w.shift(s)
	}
}

// shift moves every reference one cell against s so the cell at table
// coordinate c takes the chunk that was at c+dir. Positive steps walk the
// table ascending and negative steps walk it descending, so each source is
// read before it is overwritten. The trailing layer is evicted and the
// leading layer left empty.
func (w *World) shift(s step) {
	stride := w.stride(s.axis)
	total := len(w.cells)
	trailing, leading := 0, w.n-1
	if s.dir < 0 {
		trailing, leading = w.n-1, 0
	}

	var holes []chunk.Pos
	for k := range total {
		i := k
		if s.dir < 0 {
			i = total - 1 - k
		}
		a := w.axisCoord(i, s.axis)
		if a == trailing {
			if pos, ok := w.evict(i); ok {
				holes = append(holes, pos)
			}
		}
		if a == leading {
			w.cells[i] = chunk.NilID
			continue
		}
		w.cells[i] = w.cells[i+s.dir*stride]
	}

	switch s.axis {
	case axisX:
		w.centre.X += s.dir
	case axisY:
		w.centre.Y += s.dir
	case axisZ:
		w.centre.Z += s.dir
	}

	for i, id := range w.cells {
		if id.IsNil() {
			continue
		}
		if !w.visible[i] {
			if pos, ok := w.evict(i); ok {
				holes = append(holes, pos)
			}
			continue
		}
		c := w.pool.Get(id)
		if w.edge[i] {
			c.Flags |= chunk.Edge
		} else {
			c.Flags &^= chunk.Edge
		}
	}

	// Neighbours of the newly exposed layer re-mesh once it fills in.
	for i := range w.cells {
		if w.axisCoord(i, s.axis) != leading || !w.visible[i] {
			continue
		}
		for _, f := range chunk.Faces {
			if j, ok := w.neighbour(i, f); ok {
				if c := w.pool.Get(w.cells[j]); c != nil {
					c.MarkDirty()
				}
			}
		}
	}

	// Chunks that lost a neighbour expose their faces toward it.
	for _, pos := range holes {
		for _, f := range chunk.Faces {
			dx, dy, dz := f.Dir()
			if c := w.ChunkResolved(pos.Add(dx, dy, dz)); c != nil {
				w.stitchFace(c, f.Opposite())
			}
		}
	}
}

func (w *World) axisCoord(i int, a axis) int {
	x, y, z := w.coords(i)
	switch a {
	case axisY:
		return y
	case axisZ:
		return z
	default:
		return x
	}
}

// populate acquires chunks for empty visible cells, nearest first.
func (w *World) populate() {
	for _, i := range w.order[:w.chunksMax] {
		if !w.cells[i].IsNil() {
			continue
		}
		pos := w.posOf(i)
		c, ok := w.pool.Acquire(pos)
		if !ok {
			w.stats.Starved++
			w.dropLog.Do(func() {
				w.log.Warn("chunk pool exhausted", zap.Stringer("pos", pos), zap.Int("live", w.pool.Live()))
			})
			return
		}
		w.cells[i] = c.ID
		if w.edge[i] {
			c.Flags |= chunk.Edge
		}
		w.restore(c)
	}
}

// restore loads a saved copy of c if one exists and reconciles its boundary
// faces with the neighbours already present.
func (w *World) restore(c *chunk.Chunk) {
	if w.store == nil {
		return
	}
	found, err := w.store.Load(c.Pos, &c.Blocks)
	if err != nil {
		w.log.Warn("load saved chunk", zap.Stringer("pos", c.Pos), zap.Error(err))
		clear(c.Blocks[:])
		// An undecodable blob would fail every reload; regenerate instead.
		if errors.Is(err, storage.ErrCorrupt) {
			if err := w.store.Delete(c.Pos); err != nil {
				w.log.Warn("delete corrupt chunk", zap.Stringer("pos", c.Pos), zap.Error(err))
			}
		}
		return
	}
	if !found {
		return
	}
	c.Cursor = chunk.Volume
	c.Flags |= chunk.Generated | chunk.Modified | chunk.Dirty
	for _, f := range chunk.Faces {
		w.stitchFace(c, f)
	}
	w.stats.Restored++
}

// evict returns the chunk in cell i to the pool. Its mesh is freed, its
// queue cell cleared and, if edited, its blocks saved.
func (w *World) evict(i int) (chunk.Pos, bool) {
	id := w.cell(i)
	w.cells[i] = chunk.NilID
	c := w.pool.Get(id)
	if c == nil {
		return chunk.Pos{}, false
	}
	pos := c.Pos
	if c.Mesh != 0 {
		w.up.Free(c.Mesh)
		c.Mesh = 0
	}
	if c.Flags.Has(chunk.Queued) {
		w.tiers[c.QueueTier].clear(c.QueueCell)
	}
	if c.Flags.Has(chunk.Modified) && w.store != nil {
		if err := w.store.Save(pos, &c.Blocks); err != nil {
			w.log.Warn("save chunk", zap.Stringer("pos", pos), zap.Error(err))
		} else {
			w.stats.Saved++
		}
	}
	w.pool.Release(id)
	return pos, true
}

func (w *World) evictAll() {
	for i := range w.cells {
		w.evict(i)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
