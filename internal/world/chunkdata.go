package world

import (
	"time"

	"voxeld/internal/block"
)

// ChunkData is the authoritative block storage for one chunk column.
//
// It is created by the terrain generator or reconstructed by the persistence
// codec, and mutated only through the engine's per-chunk serialized writes.
type ChunkData struct {
	Coord ChunkCoord

	// Blocks always has exactly Volume entries (see Index for the layout).
	Blocks []block.Type

	// Per-column caches, indexed by ColumnIndex.
	HeightMap [Columns]uint8
	BiomeMap  [Columns]uint8

	// Light planes, 4 bits per block. Light is the combined plane the mesher
	// reads; BlockLight and SkyLight are its inputs.
	Light      NibbleArray
	BlockLight NibbleArray
	SkyLight   NibbleArray

	Entities     []uint64
	TileEntities map[uint16]uint64

	Dirty           bool
	NeedsLighting   bool
	NeedsDecoration bool
	LastModified    int64
}

func NewChunkData(coord ChunkCoord) *ChunkData {
	return &ChunkData{
		Coord:      coord,
		Blocks:     make([]block.Type, Volume),
		Light:      NewNibbleArray(),
		BlockLight: NewNibbleArray(),
		SkyLight:   NewNibbleArray(),
	}
}

// BlockAt returns the block at local coordinates; out-of-bounds reads are air.
func (d *ChunkData) BlockAt(x, y, z int) block.Type {
	if x < 0 || x >= SizeX || y < 0 || y >= SizeY || z < 0 || z >= SizeZ {
		return block.Air
	}
	return d.Blocks[Index(x, y, z)]
}

// SetBlockAt writes one block and stamps the modification time.
// Out-of-bounds writes are ignored.
func (d *ChunkData) SetBlockAt(x, y, z int, t block.Type) {
	if x < 0 || x >= SizeX || y < 0 || y >= SizeY || z < 0 || z >= SizeZ {
		return
	}
	i := Index(x, y, z)
	if d.Blocks[i] == t {
		return
	}
	d.Blocks[i] = t
	d.LastModified = time.Now().Unix()
}

// HeightAt returns the cached surface height of a column.
func (d *ChunkData) HeightAt(x, z int) int {
	return int(d.HeightMap[ColumnIndex(x, z)])
}

// FootprintBytes estimates resident memory for cache accounting.
func (d *ChunkData) FootprintBytes() int {
	n := Volume*2 + Columns*2 + len(d.Light) + len(d.BlockLight) + len(d.SkyLight)
	n += len(d.Entities) * 8
	n += len(d.TileEntities) * 10
	return n
}
