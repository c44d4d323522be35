package world

import (
	"math"

	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/config"
	"github.com/OCharnyshevich/chunkstream/internal/mesh"
)

const tierCount = 3

// tier is one band of the load queue: a fixed ring of chunk references fed
// from a slice of the visible order.
type tier struct {
	index     int
	lo, hi    int // window into the chunk order
	ring      []chunk.ID
	head      int
	tail      int
	live      int
	rateChunk int
	rateBlock int
}

// newTiers splits the first chunksMax entries of the order into consecutive
// bands sized by share.
func newTiers(cfg config.QueueConfig, chunksMax int) [tierCount]*tier {
	var tiers [tierCount]*tier
	var share float64
	lo := 0
	for i, tc := range cfg.Tiers() {
		share += tc.Share
		hi := int(math.Round(share * float64(chunksMax)))
		if i == tierCount-1 {
			hi = chunksMax
		}
		hi = min(max(hi, lo+1), chunksMax)
		tiers[i] = &tier{
			index:     i,
			lo:        lo,
			hi:        hi,
			ring:      make([]chunk.ID, tc.Capacity),
			rateChunk: tc.RateChunk,
			rateBlock: tc.RateBlock,
		}
		lo = hi
	}
	return tiers
}

// push appends id at the tail so cells are served in arrival order. It
// reports false when the tail cell is still occupied: the ring is full, or
// it has wrapped onto an entry older than a hole left by eviction.
func (t *tier) push(id chunk.ID) (int, bool) {
	cell := t.tail
	if !t.ring[cell].IsNil() {
		return 0, false
	}
	t.ring[cell] = id
	t.tail = (cell + 1) % len(t.ring)
	t.live++
	return cell, true
}

func (t *tier) clear(cell int) {
	if t.ring[cell].IsNil() {
		return
	}
	t.ring[cell] = chunk.NilID
	t.live--
}

// service runs the tiers in priority order. A tier is only filled and
// drained once every tier before it has nothing pending.
func (w *World) service() {
	for _, t := range w.tiers {
		w.enqueue(t)
		if w.drain(t) > 0 {
			return
		}
	}
}

// enqueue offers every dirty, unqueued chunk in t's band to its ring. A
// full ring drops the chunk; it stays dirty and is offered again next frame.
func (w *World) enqueue(t *tier) {
	for _, i := range w.order[t.lo:t.hi] {
		c := w.pool.Get(w.cells[i])
		if c == nil || !c.Flags.Has(chunk.Dirty) || c.Flags.Has(chunk.Queued) {
			continue
		}
		cell, ok := t.push(c.ID)
		if !ok {
			w.stats.Dropped++
			w.dropLog.Do(func() {
				w.log.Debug("load queue full", zap.Int("tier", t.index), zap.Stringer("pos", c.Pos))
			})
			return
		}
		c.Flags |= chunk.Queued
		c.QueueTier, c.QueueCell = t.index, cell
	}
}

// drain visits up to rateChunk occupied cells from the ring head and returns
// how many cells are still occupied.
func (w *World) drain(t *tier) int {
	visited := 0
	for k := 0; k < len(t.ring) && visited < t.rateChunk; k++ {
		cell := (t.head + k) % len(t.ring)
		id := t.ring[cell]
		if id.IsNil() {
			continue
		}
		visited++
		c := w.pool.Get(id)
		if c == nil {
			t.clear(cell)
			continue
		}
		if !c.Flags.Has(chunk.Generated) {
			w.generate(c, t.rateBlock)
			continue
		}
		if c.Flags.Has(chunk.Dirty) {
			w.remesh(c)
		}
		t.clear(cell)
		c.Flags &^= chunk.Queued
		c.QueueTier, c.QueueCell = -1, -1
	}
	for t.live > 0 && t.ring[t.head].IsNil() {
		t.head = (t.head + 1) % len(t.ring)
	}
	if t.live == 0 {
		t.head, t.tail = 0, 0
	}
	return t.live
}

// remesh rebuilds and uploads c's mesh. Upload failures are logged and the
// chunk is left without a mesh until it is next dirtied.
func (w *World) remesh(c *chunk.Chunk) {
	c.Flags &^= chunk.Dirty
	if c.Mesh != 0 {
		w.up.Free(c.Mesh)
		c.Mesh = 0
	}
	c.Flags &^= chunk.Render

	blob := mesh.Build(c)
	if len(blob) == 0 {
		return
	}
	h, err := w.up.Upload(c.Pos, blob)
	if err != nil {
		w.log.Warn("upload mesh", zap.Stringer("pos", c.Pos), zap.Int("bytes", len(blob)), zap.Error(err))
		return
	}
	c.Mesh = h
	c.Flags |= chunk.Render
}
