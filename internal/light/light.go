// Package light computes per-chunk light planes.
//
// The engine is intentionally local: sky light falls straight down each
// column and block light floods from emitters within the chunk. Cross-chunk
// propagation is out of scope; the loading manager re-runs lighting on a
// chunk and its face neighbor when an edge block changes, which keeps seams
// consistent enough for meshing.
package light

import (
	"voxeld/internal/block"
	"voxeld/internal/world"
)

const maxLight = 15

// Engine recomputes the light planes of one chunk at a time. It holds no
// per-chunk state and is safe for concurrent use on distinct chunks.
type Engine struct {
	reg *block.Registry
}

func NewEngine(reg *block.Registry) *Engine {
	return &Engine{reg: reg}
}

// Relight recomputes SkyLight, BlockLight and the combined Light plane from
// scratch and clears NeedsLighting. It is idempotent: running it twice on
// unchanged blocks produces identical planes.
func (e *Engine) Relight(d *world.ChunkData) {
	e.skyPass(d)
	e.blockPass(d)

	for i := 0; i < world.Volume; i++ {
		s := d.SkyLight.At(i)
		b := d.BlockLight.At(i)
		if b > s {
			s = b
		}
		d.Light.SetAt(i, s)
	}
	d.NeedsLighting = false
}

// skyPass drops full daylight down each column. Light passes through
// non-opaque blocks unattenuated and stops at the first opaque one, so caves
// under a roof stay dark until an emitter lights them.
func (e *Engine) skyPass(d *world.ChunkData) {
	d.SkyLight.Fill(0)
	for z := 0; z < world.SizeZ; z++ {
		for x := 0; x < world.SizeX; x++ {
			level := uint8(maxLight)
			for y := world.SizeY - 1; y >= 0; y-- {
				t := d.Blocks[world.Index(x, y, z)]
				if e.reg.IsOpaque(t) {
					break
				}
				if e.reg.IsLiquid(t) && level > 0 {
					// Water absorbs one level per block.
					level--
				}
				d.SkyLight.SetAt(world.Index(x, y, z), level)
				if level == 0 {
					break
				}
			}
		}
	}
}

// blockPass seeds emitters and floods outward with one level lost per step.
// The flood is a frontier walk from brightest to dimmest, so each cell is
// finalized the first time it is reached.
func (e *Engine) blockPass(d *world.ChunkData) {
	d.BlockLight.Fill(0)

	var byLevel [maxLight + 1][]int
	seeded := false
	for i := 0; i < world.Volume; i++ {
		if em := e.reg.LightEmission(d.Blocks[i]); em > 0 {
			d.BlockLight.SetAt(i, em)
			byLevel[em] = append(byLevel[em], i)
			seeded = true
		}
	}
	if !seeded {
		return
	}

	for level := uint8(maxLight); level >= 2; level-- {
		for _, i := range byLevel[level] {
			// Skip cells a brighter source has already overtaken.
			if d.BlockLight.At(i) != level {
				continue
			}
			x := i % world.SizeX
			z := (i / world.SizeX) % world.SizeZ
			y := i / (world.SizeX * world.SizeZ)
			for _, n := range [6][3]int{
				{x + 1, y, z}, {x - 1, y, z},
				{x, y + 1, z}, {x, y - 1, z},
				{x, y, z + 1}, {x, y, z - 1},
			} {
				nx, ny, nz := n[0], n[1], n[2]
				if nx < 0 || nx >= world.SizeX || ny < 0 || ny >= world.SizeY || nz < 0 || nz >= world.SizeZ {
					continue
				}
				ni := world.Index(nx, ny, nz)
				if e.reg.IsOpaque(d.Blocks[ni]) {
					continue
				}
				if d.BlockLight.At(ni) >= level-1 {
					continue
				}
				d.BlockLight.SetAt(ni, level-1)
				byLevel[level-1] = append(byLevel[level-1], ni)
			}
		}
	}
}
