package chunk

import "fmt"

// Block is a packed voxel: bits 0-15 block id, bits 16-21 face visibility
// (set = exposed), bits 24-31 light.
type Block uint32

// BlockID identifies a block type. 0 is air.
type BlockID uint16

const (
	Air BlockID = iota
	Stone
	Dirt
	Grass
	Sand
	Snow
	Gravel
	Bedrock
	CoalOre
	IronOre
	Water
)

const (
	faceShift  = 16
	lightShift = 24

	idMask    Block = 0xFFFF
	faceMask  Block = 0x3F << faceShift
	lightMask Block = 0xFF << lightShift

	// AllFaces has every face bit set.
	AllFaces uint8 = 0x3F
)

// Face is one of the six cube faces.
type Face uint8

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// Faces lists all faces in bit order.
var Faces = [6]Face{FacePosX, FaceNegX, FacePosY, FaceNegY, FacePosZ, FaceNegZ}

var faceDirs = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Dir returns the unit offset the face points along.
func (f Face) Dir() (dx, dy, dz int) {
	d := faceDirs[f]
	return d[0], d[1], d[2]
}

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face {
	return f ^ 1
}

// Pack builds a block value.
func Pack(id BlockID, faces uint8, light uint8) Block {
	return Block(id) | Block(faces&AllFaces)<<faceShift | Block(light)<<lightShift
}

func (b Block) ID() BlockID   { return BlockID(b & idMask) }
func (b Block) Faces() uint8  { return uint8((b & faceMask) >> faceShift) }
func (b Block) Light() uint8  { return uint8((b & lightMask) >> lightShift) }
func (b Block) IsAir() bool   { return b.ID() == Air }
func (b Block) Solid() bool   { return b.ID().Solid() }
func (b Block) Visible() bool { return b.Faces() != 0 }

// HasFace reports whether face f is exposed.
func (b Block) HasFace(f Face) bool {
	return b&(1<<(faceShift+Block(f))) != 0
}

// WithFace sets or clears the visibility bit of face f.
func (b Block) WithFace(f Face, exposed bool) Block {
	bit := Block(1) << (faceShift + Block(f))
	if exposed {
		return b | bit
	}
	return b &^ bit
}

// WithFaces replaces all face bits.
func (b Block) WithFaces(faces uint8) Block {
	return b&^faceMask | Block(faces&AllFaces)<<faceShift
}

// WithLight replaces the light value.
func (b Block) WithLight(light uint8) Block {
	return b&^lightMask | Block(light)<<lightShift
}

// Solid reports whether the block stops motion. Every non-air block hides
// its neighbours' faces, solid or not.
func (id BlockID) Solid() bool {
	return id != Air && id != Water
}

var blockNames = [...]string{
	Air:     "air",
	Stone:   "stone",
	Dirt:    "dirt",
	Grass:   "grass",
	Sand:    "sand",
	Snow:    "snow",
	Gravel:  "gravel",
	Bedrock: "bedrock",
	CoalOre: "coal_ore",
	IronOre: "iron_ore",
	Water:   "water",
}

func (id BlockID) String() string {
	if int(id) < len(blockNames) {
		return blockNames[id]
	}
	return fmt.Sprintf("block(%d)", uint16(id))
}

// ParseBlockID maps a block name such as "coal_ore" to its id.
func ParseBlockID(name string) (BlockID, error) {
	for id, n := range blockNames {
		if n == name {
			return BlockID(id), nil
		}
	}
	return Air, fmt.Errorf("unknown block %q", name)
}

// Known reports whether id names a defined block type.
func (id BlockID) Known() bool {
	return int(id) < len(blockNames)
}

// Friction is the ground friction coefficient of a standing surface.
func (id BlockID) Friction() float64 {
	switch id {
	case Snow:
		return 0.02
	case Sand, Gravel:
		return 0.25
	default:
		return 0.15
	}
}
