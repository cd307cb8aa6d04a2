package world

// Chunk dimensions. The block array of every chunk has exactly
// SizeX*SizeY*SizeZ entries and is never resized.
const (
	SizeX = 16
	SizeY = 256
	SizeZ = 16

	Volume  = SizeX * SizeY * SizeZ
	Columns = SizeX * SizeZ
)

// ChunkCoord identifies a chunk column in the XZ plane.
type ChunkCoord struct {
	X int
	Z int
}

// DistSq returns the squared chunk-grid distance to another coordinate.
func (c ChunkCoord) DistSq(o ChunkCoord) int {
	dx := c.X - o.X
	dz := c.Z - o.Z
	return dx*dx + dz*dz
}

// Neighbors returns the four face-adjacent chunk coordinates
// (west, east, south, north). These are weak references: callers resolve
// them through the chunk cache, never through owning pointers.
func (c ChunkCoord) Neighbors() [4]ChunkCoord {
	return [4]ChunkCoord{
		{c.X - 1, c.Z},
		{c.X + 1, c.Z},
		{c.X, c.Z - 1},
		{c.X, c.Z + 1},
	}
}

// LocalPos is a block position within one chunk.
type LocalPos struct {
	X, Y, Z int
}

// Valid reports whether the position lies inside chunk bounds.
func (p LocalPos) Valid() bool {
	return p.X >= 0 && p.X < SizeX && p.Y >= 0 && p.Y < SizeY && p.Z >= 0 && p.Z < SizeZ
}

// Packed encodes the position into 16 bits: x | z<<4 | y<<8.
func (p LocalPos) Packed() uint16 {
	return uint16(p.X) | uint16(p.Z)<<4 | uint16(p.Y)<<8
}

// UnpackLocal is the inverse of LocalPos.Packed.
func UnpackLocal(v uint16) LocalPos {
	return LocalPos{X: int(v & 0xF), Z: int(v >> 4 & 0xF), Y: int(v >> 8)}
}

// Index converts local coordinates to the flat block-array index.
// x fastest, then z, then y.
func Index(x, y, z int) int {
	return x + z*SizeX + y*SizeX*SizeZ
}

// ColumnIndex converts local x,z to the height/biome map index.
func ColumnIndex(x, z int) int {
	return x + z*SizeX
}

// FloorDiv divides rounding toward negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Mod returns the non-negative remainder of a/b. b must be positive.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// ChunkCoordAt returns the chunk containing the world block position.
func ChunkCoordAt(wx, wz int) ChunkCoord {
	return ChunkCoord{X: FloorDiv(wx, SizeX), Z: FloorDiv(wz, SizeZ)}
}

// LocalAt returns the in-chunk position of the world block position.
func LocalAt(wx, wy, wz int) LocalPos {
	return LocalPos{X: Mod(wx, SizeX), Y: wy, Z: Mod(wz, SizeZ)}
}
