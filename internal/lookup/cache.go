package lookup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/storage"
)

const chunksMaxFile = "chunks_max.bin"

// Cache loads the lookup tables from dir, building and writing any that are
// missing or unreadable.
type Cache struct {
	dir string
	log *zap.Logger
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string, log *zap.Logger) *Cache {
	return &Cache{dir: dir, log: log}
}

// Order returns CHUNK_ORDER for render distance d.
func (c *Cache) Order(d int) ([]int, error) {
	if d < 0 || d > MaxRenderDistance {
		return nil, fmt.Errorf("render distance %d outside [0, %d]", d, MaxRenderDistance)
	}
	path := filepath.Join(c.dir, fmt.Sprintf("order_%d.bin", d))

	vals, err := c.read(path)
	if err == nil && IsOrder(d, vals) {
		return vals, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		c.log.Warn("rebuilding invalid order cache", zap.String("path", path), zap.Int("entries", len(vals)))
	}

	order := BuildOrder(d)
	if err := c.write(path, order); err != nil {
		return nil, fmt.Errorf("write order cache: %w", err)
	}
	c.log.Info("built order cache", zap.Int("render_distance", d), zap.Int("cells", len(order)))
	return order, nil
}

// ChunksMax returns CHUNKS_MAX for render distance d.
func (c *Cache) ChunksMax(d int) (int, error) {
	if d < 0 || d > MaxRenderDistance {
		return 0, fmt.Errorf("render distance %d outside [0, %d]", d, MaxRenderDistance)
	}
	path := filepath.Join(c.dir, chunksMaxFile)

	vals, err := c.read(path)
	if err == nil && len(vals) == MaxRenderDistance+1 && vals[d] == CountVisible(d) {
		return vals[d], nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}
	if err == nil {
		c.log.Warn("rebuilding invalid chunks max cache", zap.String("path", path), zap.Int("entries", len(vals)))
	}

	table := BuildChunksMax()
	if err := c.write(path, table); err != nil {
		return 0, fmt.Errorf("write chunks max cache: %w", err)
	}
	c.log.Info("built chunks max cache", zap.Int("entries", len(table)))
	return table[d], nil
}

// read decodes a uint32 LE count followed by that many uint32 LE values.
func (c *Cache) read(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	if len(data) < 4 {
		return nil, nil
	}
	count := int(binary.LittleEndian.Uint32(data))
	if len(data) != 4+count*4 {
		return nil, nil
	}
	vals := make([]int, count)
	for i := range vals {
		vals[i] = int(binary.LittleEndian.Uint32(data[4+i*4:]))
	}
	return vals, nil
}

func (c *Cache) write(path string, vals []int) error {
	data := make([]byte, 4+len(vals)*4)
	binary.LittleEndian.PutUint32(data, uint32(len(vals)))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4+i*4:], uint32(v))
	}
	return storage.WriteFileAtomic(path, data)
}

func isPermutation(vals []int) bool {
	seen := make([]bool, len(vals))
	for _, v := range vals {
		if v < 0 || v >= len(vals) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
