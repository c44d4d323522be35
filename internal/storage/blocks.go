package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/syndtr/goleveldb/leveldb"
	"go.uber.org/zap"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
)

// ErrCorrupt is returned when a stored blob does not decode to a full chunk.
var ErrCorrupt = errors.New("corrupt chunk blob")

const blobBytes = chunk.Volume * 4

// BlockStore keeps per-chunk block arrays in LevelDB, keyed by chunk
// coordinates. Values are the little-endian packed blocks, zstd compressed.
type BlockStore struct {
	db      *leveldb.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	log     *zap.Logger
}

// OpenBlockStore opens or creates the store in dir.
func OpenBlockStore(dir string, log *zap.Logger) (*BlockStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open block store %s: %w", dir, err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &BlockStore{db: db, encoder: encoder, decoder: decoder, log: log}, nil
}

// Close releases the database and codecs.
func (s *BlockStore) Close() error {
	s.decoder.Close()
	if err := s.encoder.Close(); err != nil {
		s.db.Close()
		return fmt.Errorf("close zstd encoder: %w", err)
	}
	return s.db.Close()
}

// Save stores the block array of the chunk at pos.
func (s *BlockStore) Save(pos chunk.Pos, blocks *[chunk.Volume]chunk.Block) error {
	raw := make([]byte, blobBytes)
	for i, b := range blocks {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(b))
	}
	compressed := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/8))
	if err := s.db.Put(blockKey(pos), compressed, nil); err != nil {
		return fmt.Errorf("save chunk %v: %w", pos, err)
	}
	s.log.Debug("saved chunk blob", zap.Stringer("pos", pos), zap.Int("bytes", len(compressed)))
	return nil
}

// Load fills dst with the stored blocks of pos. found is false when nothing
// was stored.
func (s *BlockStore) Load(pos chunk.Pos, dst *[chunk.Volume]chunk.Block) (found bool, err error) {
	compressed, err := s.db.Get(blockKey(pos), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load chunk %v: %w", pos, err)
	}

	raw, err := s.decoder.DecodeAll(compressed, make([]byte, 0, blobBytes))
	if err != nil {
		return false, fmt.Errorf("decompress chunk %v: %w: %w", pos, ErrCorrupt, err)
	}
	if len(raw) != blobBytes {
		return false, fmt.Errorf("chunk %v: %d bytes: %w", pos, len(raw), ErrCorrupt)
	}
	for i := range dst {
		dst[i] = chunk.Block(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return true, nil
}

// Delete removes the stored blob of pos, if any.
func (s *BlockStore) Delete(pos chunk.Pos) error {
	if err := s.db.Delete(blockKey(pos), nil); err != nil {
		return fmt.Errorf("delete chunk %v: %w", pos, err)
	}
	return nil
}

func blockKey(pos chunk.Pos) []byte {
	key := make([]byte, 13)
	key[0] = 'c'
	binary.BigEndian.PutUint32(key[1:], uint32(int32(pos.X)))
	binary.BigEndian.PutUint32(key[5:], uint32(int32(pos.Y)))
	binary.BigEndian.PutUint32(key[9:], uint32(int32(pos.Z)))
	return key
}
