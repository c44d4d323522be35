package mesh

import (
	"errors"

	"github.com/OCharnyshevich/chunkstream/internal/chunk"
)

// ErrBudget is returned when an upload would exceed the uploader's budget.
var ErrBudget = errors.New("mesh: upload budget exceeded")

// Uploader is the renderer boundary. Upload returns a non-zero handle for the
// blob; Free releases it. Freeing an unknown or zero handle is a no-op.
type Uploader interface {
	Upload(pos chunk.Pos, blob []byte) (chunk.MeshHandle, error)
	Free(h chunk.MeshHandle)
}

// Resident is one uploaded mesh held by a MemoryUploader.
type Resident struct {
	Pos   chunk.Pos
	Bytes int
}

// MemoryUploader keeps meshes in memory. It backs the headless driver and
// tests. A zero Budget means unlimited.
type MemoryUploader struct {
	Budget int

	next     chunk.MeshHandle
	resident map[chunk.MeshHandle]Resident
	bytes    int
	uploads  int
	frees    int
}

// NewMemoryUploader returns an uploader with the given byte budget.
func NewMemoryUploader(budget int) *MemoryUploader {
	return &MemoryUploader{
		Budget:   budget,
		resident: make(map[chunk.MeshHandle]Resident),
	}
}

// Upload implements Uploader.
func (u *MemoryUploader) Upload(pos chunk.Pos, blob []byte) (chunk.MeshHandle, error) {
	if u.Budget > 0 && u.bytes+len(blob) > u.Budget {
		return 0, ErrBudget
	}
	u.next++
	u.resident[u.next] = Resident{Pos: pos, Bytes: len(blob)}
	u.bytes += len(blob)
	u.uploads++
	return u.next, nil
}

// Free implements Uploader.
func (u *MemoryUploader) Free(h chunk.MeshHandle) {
	r, ok := u.resident[h]
	if !ok {
		return
	}
	delete(u.resident, h)
	u.bytes -= r.Bytes
	u.frees++
}

// Lookup returns the resident mesh for h.
func (u *MemoryUploader) Lookup(h chunk.MeshHandle) (Resident, bool) {
	r, ok := u.resident[h]
	return r, ok
}

// Stats reports resident meshes, resident bytes, and lifetime upload and
// free counts.
func (u *MemoryUploader) Stats() (resident, bytes, uploads, frees int) {
	return len(u.resident), u.bytes, u.uploads, u.frees
}
