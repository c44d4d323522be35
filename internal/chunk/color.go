package chunk

// Debug colours, 0xRRGGBBAA.
const (
	colorEmpty      uint32 = 0x00000000
	colorGenerating uint32 = 0xE0A02080
	colorQueued     uint32 = 0x2060E080
	colorDirty      uint32 = 0xE0E02080
	colorRendered   uint32 = 0x20C04040
	colorEdge       uint32 = 0x80808040
)

// RefreshColor recomputes the debug visualiser colour from the flags.
func (c *Chunk) RefreshColor() {
	c.Color = DebugColor(c.Flags, c.Cursor)
}

// DebugColor maps a chunk state to a visualiser colour. Partially generated
// chunks encode their progress in the alpha channel.
func DebugColor(f Flags, cursor int) uint32 {
	switch {
	case !f.Has(Loaded):
		return colorEmpty
	case !f.Has(Generated):
		alpha := uint32(0x20 + cursor*0xC0/Volume)
		return colorGenerating&^0xFF | alpha
	case f.Has(Queued):
		return colorQueued
	case f.Has(Dirty):
		return colorDirty
	case f.Has(Edge):
		return colorEdge
	default:
		return colorRendered
	}
}
