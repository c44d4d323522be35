// Package mesh turns a chunk's face bits into a vertex blob and hands it to
// the renderer through an Uploader.
package mesh

import (
	"encoding/binary"
	"fmt"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
)

// QuadBytes is the size of one encoded face record:
// x, y, z, face (1 byte each), block id (2 bytes LE), light, reserved.
const QuadBytes = 8

// Quad is one exposed block face.
type Quad struct {
	X, Y, Z uint8
	Face    chunk.Face
	Block   chunk.BlockID
	Light   uint8
}

// Build encodes every exposed face of c. The result is empty when no block
// has a visible face.
func Build(c *chunk.Chunk) []byte {
	n := 0
	for _, b := range &c.Blocks {
		if !b.IsAir() {
			n += popcount6(b.Faces())
		}
	}
	if n == 0 {
		return nil
	}

	blob := make([]byte, 0, n*QuadBytes)
	for i, b := range &c.Blocks {
		if b.IsAir() || !b.Visible() {
			continue
		}
		x, y, z := chunk.Coords(i)
		for _, f := range chunk.Faces {
			if !b.HasFace(f) {
				continue
			}
			blob = appendQuad(blob, Quad{
				X: uint8(x), Y: uint8(y), Z: uint8(z),
				Face:  f,
				Block: b.ID(),
				Light: b.Light(),
			})
		}
	}
	return blob
}

func appendQuad(dst []byte, q Quad) []byte {
	dst = append(dst, q.X, q.Y, q.Z, uint8(q.Face))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(q.Block))
	return append(dst, q.Light, 0)
}

// Decode splits a blob produced by Build back into quads.
func Decode(blob []byte) ([]Quad, error) {
	if len(blob)%QuadBytes != 0 {
		return nil, fmt.Errorf("mesh blob length %d not a multiple of %d", len(blob), QuadBytes)
	}
	quads := make([]Quad, 0, len(blob)/QuadBytes)
	for off := 0; off < len(blob); off += QuadBytes {
		r := blob[off : off+QuadBytes]
		quads = append(quads, Quad{
			X: r[0], Y: r[1], Z: r[2],
			Face:  chunk.Face(r[3]),
			Block: chunk.BlockID(binary.LittleEndian.Uint16(r[4:])),
			Light: r[6],
		})
	}
	return quads, nil
}

func popcount6(v uint8) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}
