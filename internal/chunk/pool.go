package chunk

// ID encodes a 32-bit slot index in the lower bits and a 32-bit generation in
// the upper bits. Generations start at 1 so the zero ID never resolves, and
// increment on release to invalidate stale handles.
type ID uint64

// NilID is the null chunk reference.
const NilID ID = 0

func newID(index uint32, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

// Index returns the pool slot.
func (id ID) Index() uint32 { return uint32(id) }

// Generation returns the slot generation the ID was issued under.
func (id ID) Generation() uint32 { return uint32(id >> 32) }

// IsNil reports whether id is the null reference.
func (id ID) IsNil() bool { return id == NilID }

// Pool is fixed-capacity chunk storage. Chunks never move once allocated, and
// a slot's storage is recycled in place on release.
// Accessed only from the frame loop goroutine.
type Pool struct {
	chunks      []Chunk
	generations []uint32
	cursor      int // no free slot below this index
	live        int
}

// NewPool allocates storage for capacity chunks.
func NewPool(capacity int) *Pool {
	p := &Pool{
		chunks:      make([]Chunk, capacity),
		generations: make([]uint32, capacity),
	}
	for i := range p.generations {
		p.generations[i] = 1
	}
	return p
}

// Cap returns the pool capacity.
func (p *Pool) Cap() int { return len(p.chunks) }

// Live returns the number of acquired chunks.
func (p *Pool) Live() int { return p.live }

// Acquire returns a zeroed chunk initialised for pos. ok is false when every
// slot is in use.
func (p *Pool) Acquire(pos Pos) (c *Chunk, ok bool) {
	for i := p.cursor; i < len(p.chunks); i++ {
		if p.chunks[i].Flags.Has(Loaded) {
			continue
		}
		c = &p.chunks[i]
		c.reset(newID(uint32(i), p.generations[i]), pos)
		p.cursor = i + 1
		p.live++
		return c, true
	}
	p.cursor = len(p.chunks)
	return nil, false
}

// Get resolves id, returning nil for stale or nil handles.
func (p *Pool) Get(id ID) *Chunk {
	if id.IsNil() {
		return nil
	}
	idx := int(id.Index())
	if idx >= len(p.chunks) || p.generations[idx] != id.Generation() {
		return nil
	}
	c := &p.chunks[idx]
	if !c.Flags.Has(Loaded) {
		return nil
	}
	return c
}

// Release returns the chunk behind id to the free set. The caller frees GPU
// resources first; Release only clears the handle. Stale ids are ignored.
func (p *Pool) Release(id ID) bool {
	c := p.Get(id)
	if c == nil {
		return false
	}
	idx := int(id.Index())
	c.Mesh = 0
	c.Flags = 0
	c.Cursor = 0
	c.QueueTier, c.QueueCell = -1, -1
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	if idx < p.cursor {
		p.cursor = idx
	}
	p.live--
	return true
}

// Each calls fn for every live chunk in slot order.
func (p *Pool) Each(fn func(c *Chunk)) {
	for i := range p.chunks {
		if p.chunks[i].Flags.Has(Loaded) {
			fn(&p.chunks[i])
		}
	}
}
