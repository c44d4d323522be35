// Package world streams a sphere of chunks around a moving observer.
//
// A World owns the chunk table, the chunk pool and the load queue. It is
// accessed only from the frame loop goroutine: Update, the block mutation
// methods and the lookups must not run concurrently.
package world

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/config"
	"github.com/OCharnyshevich/chunkstream/internal/lookup"
	"github.com/OCharnyshevich/chunkstream/internal/mesh"
	"github.com/OCharnyshevich/chunkstream/internal/terrain"
)

// ErrCapacity is returned by New when the pool cannot hold every visible
// chunk.
var ErrCapacity = errors.New("world: pool capacity below visible chunk count")

// BlockStore persists edited chunks across evictions. Load reports false
// when nothing is stored for pos and wraps storage.ErrCorrupt for blobs
// that cannot be decoded.
type BlockStore interface {
	Save(pos chunk.Pos, blocks *[chunk.Volume]chunk.Block) error
	Load(pos chunk.Pos, dst *[chunk.Volume]chunk.Block) (bool, error)
	Delete(pos chunk.Pos) error
}

// Deps are the collaborators a World drives. Store may be nil.
type Deps struct {
	Generator terrain.Generator
	Uploader  mesh.Uploader
	Store     BlockStore
	Log       *zap.Logger
}

// Stats is a snapshot of window state.
type Stats struct {
	Live      int
	Generated int
	Rendered  int
	Queued    [tierCount]int
	Dropped   int // enqueue attempts rejected by full rings, lifetime
	Starved   int // visible cells left empty by an exhausted pool, lifetime
	Saved     int
	Restored  int
}

// World is the streaming window: a chunk table centred on the observer, the
// pool backing it and the tiered load queue that fills it.
type World struct {
	d         int
	n         int
	order     []int
	chunksMax int
	visible   []bool
	edge      []bool

	centre    chunk.Pos
	populated bool
	cells     []chunk.ID
	pool      *chunk.Pool
	tiers     [tierCount]*tier

	gen   terrain.Generator
	up    mesh.Uploader
	store BlockStore
	log   *zap.Logger

	dropLog rate.Sometimes
	stats   Stats
}

// New builds an empty window. The first Update centres it on the observer.
func New(cfg *config.Config, deps Deps) (*World, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("world")
	if deps.Generator == nil || deps.Uploader == nil {
		return nil, errors.New("world: generator and uploader required")
	}

	d := cfg.World.RenderDistance
	cache := lookup.NewCache(cfg.World.DataDir, log.Named("lookup"))
	order, err := cache.Order(d)
	if err != nil {
		return nil, fmt.Errorf("load chunk order: %w", err)
	}
	chunksMax, err := cache.ChunksMax(d)
	if err != nil {
		return nil, fmt.Errorf("load chunks max: %w", err)
	}

	capacity := cfg.World.PoolCapacity
	if capacity == 0 {
		capacity = chunksMax
	}
	if capacity < chunksMax {
		return nil, fmt.Errorf("%w: %d < %d", ErrCapacity, capacity, chunksMax)
	}

	n := lookup.Diameter(d)
	w := &World{
		d:         d,
		n:         n,
		order:     order,
		chunksMax: chunksMax,
		visible:   make([]bool, n*n*n),
		edge:      make([]bool, n*n*n),
		cells:     make([]chunk.ID, n*n*n),
		pool:      chunk.NewPool(capacity),
		gen:       deps.Generator,
		up:        deps.Uploader,
		store:     deps.Store,
		log:       log,
		dropLog:   rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	for i := range w.visible {
		w.visible[i] = lookup.Visible(d, i)
	}
	for i := range w.edge {
		w.edge[i] = w.visible[i] && w.borders(i)
	}
	w.tiers = newTiers(cfg.Queue, chunksMax)

	log.Info("world ready",
		zap.Int("render_distance", d),
		zap.Int("chunks_max", chunksMax),
		zap.Int("pool_capacity", capacity))
	return w, nil
}

// borders reports whether cell i has a neighbour that is off-table or
// outside the visible sphere.
func (w *World) borders(i int) bool {
	for _, f := range chunk.Faces {
		j, ok := w.neighbour(i, f)
		if !ok || !w.visible[j] {
			return true
		}
	}
	return false
}

// Update re-centres the window on the observer's chunk, fills empty visible
// cells, then spends the frame's generation and meshing budget.
func (w *World) Update(observer chunk.Pos) {
	if !w.populated {
		w.centre = observer
		w.populated = true
	} else {
		w.Recentre(observer.Sub(w.centre))
	}
	w.populate()
	w.service()
	w.pool.Each(func(c *chunk.Chunk) { c.RefreshColor() })
}

// Centre returns the chunk the window is centred on.
func (w *World) Centre() chunk.Pos { return w.centre }

// RenderDistance returns the window radius in chunks.
func (w *World) RenderDistance() int { return w.d }

// ChunksMax returns the number of visible cells.
func (w *World) ChunksMax() int { return w.chunksMax }

// Pool exposes chunk storage for inspection.
func (w *World) Pool() *chunk.Pool { return w.pool }

// Order yields loaded chunks nearest first.
func (w *World) Order() iter.Seq[*chunk.Chunk] {
	return func(yield func(*chunk.Chunk) bool) {
		for _, i := range w.order[:w.chunksMax] {
			c := w.pool.Get(w.cells[i])
			if c == nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// Stats returns a snapshot of window state.
func (w *World) Stats() Stats {
	s := w.stats
	s.Live = w.pool.Live()
	s.Generated, s.Rendered = 0, 0
	w.pool.Each(func(c *chunk.Chunk) {
		if c.Flags.Has(chunk.Generated) {
			s.Generated++
		}
		if c.Flags.Has(chunk.Render) {
			s.Rendered++
		}
	})
	for i, t := range w.tiers {
		s.Queued[i] = t.live
	}
	return s
}

// Close evicts every chunk, saving edited ones, and closes the generator if
// it holds resources.
func (w *World) Close() error {
	w.evictAll()
	if c, ok := w.gen.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ChunkResolved returns the loaded chunk at pos, or nil.
func (w *World) ChunkResolved(pos chunk.Pos) *chunk.Chunk {
	i, ok := w.indexOf(pos)
	if !ok {
		return nil
	}
	return w.pool.Get(w.cells[i])
}

// BlockResolved returns the block at world coordinates. ok is false when the
// owning chunk is not loaded or has not generated that block yet.
func (w *World) BlockResolved(x, y, z int) (b chunk.Block, ok bool) {
	c := w.ChunkResolved(chunk.PosOf(x, y, z))
	if c == nil {
		return 0, false
	}
	i := chunk.Index(chunk.Local(x, y, z))
	if !c.HasGenerated(i) {
		return 0, false
	}
	return c.Blocks[i], true
}

// SolidAt reports whether the block at world coordinates stops motion.
// Unresolved blocks are not solid.
func (w *World) SolidAt(x, y, z int) bool {
	b, ok := w.BlockResolved(x, y, z)
	return ok && b.Solid()
}
