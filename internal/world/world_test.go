package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
	"github.com/OCharnyshevich/chunkstream/internal/config"
	"github.com/OCharnyshevich/chunkstream/internal/lookup"
	"github.com/OCharnyshevich/chunkstream/internal/mesh"
	"github.com/OCharnyshevich/chunkstream/internal/storage"
	"github.com/OCharnyshevich/chunkstream/internal/terrain"
)

type testWorld struct {
	*World
	up *mesh.MemoryUploader
}

func testConfig(t *testing.T, d int) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.World.RenderDistance = d
	cfg.World.DataDir = t.TempDir()
	return cfg
}

func newTestWorld(t *testing.T, cfg *config.Config, gen terrain.Generator, store BlockStore) testWorld {
	t.Helper()
	up := mesh.NewMemoryUploader(0)
	w, err := New(cfg, Deps{Generator: gen, Uploader: up, Store: store, Log: zap.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return testWorld{World: w, up: up}
}

// settle runs frames at observer until every chunk is generated and meshed.
func settle(t *testing.T, w *World, observer chunk.Pos) {
	t.Helper()
	for frame := 0; frame < 2000; frame++ {
		w.Update(observer)
		if settled(w) {
			return
		}
	}
	t.Fatalf("window did not settle: %+v", w.Stats())
}

func settled(w *World) bool {
	s := w.Stats()
	if s.Live != w.ChunksMax() || s.Generated != s.Live {
		return false
	}
	for _, q := range s.Queued {
		if q != 0 {
			return false
		}
	}
	dirty := false
	w.pool.Each(func(c *chunk.Chunk) {
		if c.Flags.Has(chunk.Dirty) {
			dirty = true
		}
	})
	return !dirty
}

func TestNewRejectsSmallPool(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.World.PoolCapacity = lookup.CountVisible(2) - 1
	_, err := New(cfg, Deps{Generator: terrain.NewFlatGenerator(), Uploader: mesh.NewMemoryUploader(0)})
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("New() error = %v, want ErrCapacity", err)
	}
}

func TestStaleOrderCacheLoadsCentre(t *testing.T) {
	cfg := testConfig(t, 2)
	n := lookup.Diameter(2)
	data := make([]byte, 4+n*n*n*4)
	binary.LittleEndian.PutUint32(data, uint32(n*n*n))
	for i := range n * n * n {
		binary.LittleEndian.PutUint32(data[4+i*4:], uint32(i))
	}
	if err := os.WriteFile(filepath.Join(cfg.World.DataDir, "order_2.bin"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWorld(t, cfg, terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{})
	if w.ChunkResolved(chunk.Pos{}) == nil {
		t.Fatalf("centre chunk not loaded; live=%d", w.Pool().Live())
	}
	for c := range w.Order() {
		if c.Pos != (chunk.Pos{}) {
			t.Errorf("first chunk in order = %v, want centre", c.Pos)
		}
		break
	}
}

func TestFirstUpdateFillsVisibleCells(t *testing.T) {
	w := newTestWorld(t, testConfig(t, 2), terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{})

	if got, want := w.pool.Live(), lookup.CountVisible(2); got != want {
		t.Fatalf("live = %d, want %d", got, want)
	}
	for i, id := range w.cells {
		if id.IsNil() == w.visible[i] {
			t.Fatalf("cell %d: nil=%v visible=%v", i, id.IsNil(), w.visible[i])
		}
		if c := w.pool.Get(id); c != nil && c.Pos != w.posOf(i) {
			t.Fatalf("cell %d holds %v, want %v", i, c.Pos, w.posOf(i))
		}
	}
}

func TestRecentreZeroIsNoop(t *testing.T) {
	w := newTestWorld(t, testConfig(t, 2), terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{X: 4, Y: -1, Z: 2})
	before := append([]chunk.ID(nil), w.cells...)
	live := w.pool.Live()

	w.Recentre(chunk.Pos{})

	if w.pool.Live() != live {
		t.Errorf("live = %d, want %d", w.pool.Live(), live)
	}
	for i := range before {
		if before[i] != w.cells[i] {
			t.Fatalf("cell %d changed", i)
		}
	}
}

func TestCentreFollowsObserver(t *testing.T) {
	w := newTestWorld(t, testConfig(t, 2), terrain.NewFlatGenerator(), nil)
	centre := w.index(w.d, w.d, w.d)

	observer := chunk.Pos{}
	moves := []chunk.Pos{
		{X: 1}, {X: 1}, {Z: -1}, {Y: 1}, {X: -1}, {Z: -1}, {Z: -1}, {Y: -1}, {Y: -1}, {X: 1},
	}
	w.Update(observer)
	for k, m := range moves {
		observer = observer.Add(m.X, m.Y, m.Z)
		w.Update(observer)
		c := w.pool.Get(w.cells[centre])
		if c == nil {
			t.Fatalf("move %d: centre cell empty", k)
		}
		if c.Pos != observer {
			t.Fatalf("move %d: centre cell holds %v, want %v", k, c.Pos, observer)
		}
		for i, id := range w.cells {
			if c := w.pool.Get(id); c != nil && c.Pos != w.posOf(i) {
				t.Fatalf("move %d: cell %d holds %v, want %v", k, i, c.Pos, w.posOf(i))
			}
		}
	}
}

func TestMultiAxisMatchesSingleSteps(t *testing.T) {
	a := newTestWorld(t, testConfig(t, 2), terrain.NewFlatGenerator(), nil)
	b := newTestWorld(t, testConfig(t, 2), terrain.NewFlatGenerator(), nil)
	a.Update(chunk.Pos{})
	b.Update(chunk.Pos{})

	a.Recentre(chunk.Pos{X: 2, Y: -1, Z: 1})
	b.Recentre(chunk.Pos{X: 1})
	b.Recentre(chunk.Pos{X: 1})
	b.Recentre(chunk.Pos{Y: -1})
	b.Recentre(chunk.Pos{Z: 1})

	if a.Centre() != b.Centre() {
		t.Fatalf("centres differ: %v vs %v", a.Centre(), b.Centre())
	}
	for i := range a.cells {
		ca, cb := a.pool.Get(a.cells[i]), b.pool.Get(b.cells[i])
		if (ca == nil) != (cb == nil) || (ca != nil && ca.Pos != cb.Pos) {
			t.Fatalf("cell %d differs", i)
		}
	}
}

func TestMoveOneChunkPlusX(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.World.PoolCapacity = lookup.CountVisible(2)
	w := newTestWorld(t, cfg, terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{})
	live := w.pool.Live()

	trailing := w.ChunkResolved(chunk.Pos{X: -2})
	if trailing == nil {
		t.Fatal("-x cap not loaded")
	}
	trailingID := trailing.ID

	w.Recentre(chunk.Pos{X: 1})

	if w.pool.Get(trailingID) != nil {
		t.Error("-x cap still resolves after crossing")
	}
	lead, ok := w.indexOf(chunk.Pos{X: 3})
	if !ok || !w.visible[lead] {
		t.Fatal("+x cap not a visible cell")
	}
	if !w.cells[lead].IsNil() {
		t.Error("+x cap populated before repopulation")
	}

	w.Update(chunk.Pos{X: 1})
	if w.pool.Live() != live {
		t.Errorf("live = %d after repopulation, want %d", w.pool.Live(), live)
	}
	if c := w.ChunkResolved(chunk.Pos{X: 3}); c == nil || !c.Flags.Has(chunk.Dirty) {
		t.Error("+x cap not repopulated with a dirty chunk")
	}
}

func TestTeleportEvictsEverything(t *testing.T) {
	w := newTestWorld(t, testConfig(t, 1), terrain.NewFlatGenerator(), nil)
	settle(t, w.World, chunk.Pos{})
	if resident, _, _, _ := w.up.Stats(); resident == 0 {
		t.Fatal("no meshes uploaded")
	}

	w.Recentre(chunk.Pos{X: 50, Z: -50})

	if w.pool.Live() != 0 {
		t.Errorf("live = %d after teleport", w.pool.Live())
	}
	if resident, _, uploads, frees := w.up.Stats(); resident != 0 || uploads != frees {
		t.Errorf("meshes resident=%d uploads=%d frees=%d", resident, uploads, frees)
	}
	if w.Centre() != (chunk.Pos{X: 50, Z: -50}) {
		t.Errorf("centre = %v", w.Centre())
	}
	settle(t, w.World, chunk.Pos{X: 50, Z: -50})
}

func TestEvictMidGenerationClearsQueue(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Queue.Near.RateBlock = 100
	w := newTestWorld(t, cfg, terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{})

	var victim *chunk.Chunk
	w.pool.Each(func(c *chunk.Chunk) {
		if victim == nil && c.Flags.Has(chunk.Queued) && c.Cursor > 0 && !c.Flags.Has(chunk.Generated) {
			victim = c
		}
	})
	if victim == nil {
		t.Fatal("no chunk mid-generation")
	}
	id := victim.ID

	w.Recentre(chunk.Pos{X: 10})

	for _, tr := range w.tiers {
		for cell, ref := range tr.ring {
			if ref == id {
				t.Errorf("tier %d cell %d still references evicted chunk", tr.index, cell)
			}
		}
		if tr.live != 0 {
			t.Errorf("tier %d live = %d after eviction", tr.index, tr.live)
		}
	}
}

func TestLowerTiersWaitForHigher(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.Queue.Near.RateBlock = 1
	w := newTestWorld(t, cfg, terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{})

	if w.tiers[0].live == 0 {
		t.Fatal("near tier empty")
	}
	if w.tiers[1].live != 0 || w.tiers[2].live != 0 {
		t.Errorf("lower tiers touched: mid=%d far=%d", w.tiers[1].live, w.tiers[2].live)
	}
}

func TestFullRingDrops(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.Queue.Near.Capacity = 1
	cfg.Queue.Near.RateBlock = 1
	w := newTestWorld(t, cfg, terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{})

	if w.Stats().Dropped == 0 {
		t.Fatal("expected drops with a one-cell ring")
	}
	queued := 0
	for _, i := range w.order[w.tiers[0].lo:w.tiers[0].hi] {
		c := w.pool.Get(w.cells[i])
		if c.Flags.Has(chunk.Queued) {
			queued++
		} else if !c.Flags.Has(chunk.Dirty) {
			t.Errorf("dropped chunk %v lost its dirty flag", c.Pos)
		}
	}
	if queued != 1 {
		t.Errorf("queued = %d, want 1", queued)
	}
}

func TestPushAppendsAtTail(t *testing.T) {
	tr := &tier{ring: make([]chunk.ID, 4)}
	for k := 1; k <= 3; k++ {
		if cell, ok := tr.push(chunk.ID(1<<32 | k)); !ok || cell != k-1 {
			t.Fatalf("push(%d) = %d, %v; want %d, true", k, cell, ok, k-1)
		}
	}
	tr.clear(1)

	if cell, ok := tr.push(chunk.ID(1<<32 | 4)); !ok || cell != 3 {
		t.Fatalf("push after hole = %d, %v; want tail cell 3", cell, ok)
	}
	if _, ok := tr.push(chunk.ID(1<<32 | 5)); ok {
		t.Error("push refilled a hole ahead of older entries")
	}
	if tr.live != 3 {
		t.Errorf("live = %d, want 3", tr.live)
	}
}

func TestTiersPartitionVisibleOrder(t *testing.T) {
	w := newTestWorld(t, testConfig(t, 3), terrain.NewFlatGenerator(), nil)
	if w.tiers[0].lo != 0 || w.tiers[2].hi != w.ChunksMax() {
		t.Fatalf("bands do not cover order: %d..%d", w.tiers[0].lo, w.tiers[2].hi)
	}
	for k := 1; k < tierCount; k++ {
		if w.tiers[k].lo != w.tiers[k-1].hi {
			t.Errorf("tier %d starts at %d, previous ends at %d", k, w.tiers[k].lo, w.tiers[k-1].hi)
		}
	}
}

// checkFaces verifies that every face bit is set exactly when the block
// across it is air or unresolved.
func checkFaces(t *testing.T, w *World) {
	t.Helper()
	w.pool.Each(func(c *chunk.Chunk) {
		ox, oy, oz := c.Pos.Origin()
		for i, b := range &c.Blocks {
			x, y, z := chunk.Coords(i)
			if b.IsAir() {
				if b.Faces() != 0 {
					t.Fatalf("air at %v+(%d,%d,%d) has faces", c.Pos, x, y, z)
				}
				continue
			}
			for _, f := range chunk.Faces {
				dx, dy, dz := f.Dir()
				nb, ok := w.BlockResolved(ox+x+dx, oy+y+dy, oz+z+dz)
				if want := !ok || nb.IsAir(); b.HasFace(f) != want {
					t.Fatalf("block %v at %v+(%d,%d,%d) face %d = %v, want %v",
						b.ID(), c.Pos, x, y, z, f, b.HasFace(f), want)
				}
			}
		}
	})
}

func TestGeneratedFacesConsistent(t *testing.T) {
	def, err := terrain.NewDefaultGenerator(11, terrain.DefaultPreset())
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		name string
		gen  terrain.Generator
	}{
		{"flat", terrain.NewFlatGenerator()},
		{"default", def},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld(t, testConfig(t, 1), tc.gen, nil)
			settle(t, w.World, chunk.Pos{})
			checkFaces(t, w.World)

			settle(t, w.World, chunk.Pos{X: 1})
			checkFaces(t, w.World)
		})
	}
}

func TestOrderNearestFirst(t *testing.T) {
	w := newTestWorld(t, testConfig(t, 2), terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{X: 3})

	prev := -1
	count := 0
	for c := range w.Order() {
		d := c.Pos.Sub(w.Centre())
		dist := d.X*d.X + d.Y*d.Y + d.Z*d.Z
		if dist < prev {
			t.Fatalf("order went from distance %d to %d", prev, dist)
		}
		prev = dist
		count++
	}
	if count != w.ChunksMax() {
		t.Errorf("yielded %d chunks, want %d", count, w.ChunksMax())
	}
}

func TestEdgeFlag(t *testing.T) {
	w := newTestWorld(t, testConfig(t, 1), terrain.NewFlatGenerator(), nil)
	w.Update(chunk.Pos{})
	if c := w.ChunkResolved(chunk.Pos{}); c.Flags.Has(chunk.Edge) {
		t.Error("centre chunk flagged as edge")
	}
	if c := w.ChunkResolved(chunk.Pos{X: 1}); !c.Flags.Has(chunk.Edge) {
		t.Error("boundary chunk not flagged as edge")
	}
}

func TestPersistAcrossEviction(t *testing.T) {
	store, err := storage.OpenBlockStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	w := newTestWorld(t, testConfig(t, 1), terrain.NewFlatGenerator(), store)
	settle(t, w.World, chunk.Pos{})
	if !w.PlaceBlockAt(2, 5, 2, chunk.Stone) {
		t.Fatal("place failed")
	}

	w.Recentre(chunk.Pos{X: 40})
	if s := w.Stats(); s.Saved != 1 {
		t.Fatalf("saved = %d, want 1", s.Saved)
	}

	settle(t, w.World, chunk.Pos{})
	b, ok := w.BlockResolved(2, 5, 2)
	if !ok || b.ID() != chunk.Stone {
		t.Fatalf("restored block = %v, %v", b.ID(), ok)
	}
	if !w.ChunkResolved(chunk.Pos{}).Flags.Has(chunk.Modified) {
		t.Error("restored chunk not marked modified")
	}
	if w.Stats().Restored != 1 {
		t.Errorf("restored = %d, want 1", w.Stats().Restored)
	}
	checkFaces(t, w.World)
}

// corruptStore reports every stored chunk as corrupt and records deletions.
type corruptStore struct {
	deleted []chunk.Pos
}

func (s *corruptStore) Save(chunk.Pos, *[chunk.Volume]chunk.Block) error { return nil }

func (s *corruptStore) Load(pos chunk.Pos, _ *[chunk.Volume]chunk.Block) (bool, error) {
	return false, fmt.Errorf("chunk %v: %w", pos, storage.ErrCorrupt)
}

func (s *corruptStore) Delete(pos chunk.Pos) error {
	s.deleted = append(s.deleted, pos)
	return nil
}

func TestCorruptSaveIsDeletedAndRegenerated(t *testing.T) {
	store := &corruptStore{}
	w := newTestWorld(t, testConfig(t, 1), terrain.NewFlatGenerator(), store)
	settle(t, w.World, chunk.Pos{})

	if len(store.deleted) != w.ChunksMax() {
		t.Errorf("deleted %d blobs, want %d", len(store.deleted), w.ChunksMax())
	}
	if s := w.Stats(); s.Restored != 0 {
		t.Errorf("restored = %d, want 0", s.Restored)
	}
	b, ok := w.BlockResolved(0, 4, 0)
	if !ok || b.ID() != chunk.Grass {
		t.Errorf("BlockResolved(0, 4, 0) = %v, %v; want grass", b.ID(), ok)
	}
	checkFaces(t, w.World)
}

func TestCloseSavesModified(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.OpenBlockStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	w := newTestWorld(t, testConfig(t, 1), terrain.NewFlatGenerator(), store)
	settle(t, w.World, chunk.Pos{})
	w.BreakBlockAt(0, 4, 0)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var blocks [chunk.Volume]chunk.Block
	found, err := store.Load(chunk.Pos{}, &blocks)
	if err != nil || !found {
		t.Fatalf("Load = %v, %v", found, err)
	}
	if !blocks[chunk.Index(0, 4, 0)].IsAir() {
		t.Error("broken block not persisted")
	}
}
