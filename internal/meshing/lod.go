package meshing

import (
	"voxeld/internal/block"
	"voxeld/internal/world"
)

// grid is the mesher's view of a chunk at a given LOD: the block grid
// decimated by step with nearest-neighbor sampling. Reads outside the grid
// are air, which makes chunk boundaries mesh as exposed faces.
type grid struct {
	sx, sy, sz int
	step       int
	d          *world.ChunkData
}

func newGrid(d *world.ChunkData, lod int) *grid {
	step := 1 << lod
	return &grid{
		sx:   world.SizeX / step,
		sy:   world.SizeY / step,
		sz:   world.SizeZ / step,
		step: step,
		d:    d,
	}
}

func (g *grid) at(x, y, z int) block.Type {
	if x < 0 || x >= g.sx || y < 0 || y >= g.sy || z < 0 || z >= g.sz {
		return block.Air
	}
	return g.d.Blocks[world.Index(x*g.step, y*g.step, z*g.step)]
}
