package block

// Type identifies a block kind. The zero value is air.
type Type uint16

const (
	Air Type = iota
	Grass
	Dirt
	Stone
	Bedrock
	Sand
	Sandstone
	Gravel
	Snow
	Water
	Leaves
	Glass
	CoalOre
	IronOre
	GoldOre
	RedstoneOre
	DiamondOre
	Glowstone
)

// Face identifies a face of a block.
type Face int

const (
	FaceEast   Face = iota // +X
	FaceWest               // -X
	FaceTop                // +Y
	FaceBottom             // -Y
	FaceNorth              // +Z
	FaceSouth              // -Z
)

func (f Face) String() string {
	switch f {
	case FaceEast:
		return "east"
	case FaceWest:
		return "west"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	default:
		return "unknown"
	}
}
