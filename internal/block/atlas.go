package block

import (
	"github.com/go-gl/mathgl/mgl32"
)

// UVRect is a texture-atlas rectangle. For a quad merged over w×h blocks the
// rectangle is scaled so the tile repeats once per block (the shader samples
// the atlas tile with wrap-around within the tile bounds).
type UVRect struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

// AtlasLookup resolves a block face to a texture-atlas UV rectangle.
// The mesher consumes this as an external collaborator.
type AtlasLookup interface {
	UVRect(t Type, f Face, w, h int) UVRect
}

// GridAtlas is a square texture atlas with uniformly sized tiles laid out
// row-major. Tile indices come from the block registry.
type GridAtlas struct {
	reg *Registry
	// TilesPerRow is the number of tiles along one atlas edge.
	TilesPerRow int
}

func NewGridAtlas(reg *Registry, tilesPerRow int) *GridAtlas {
	if tilesPerRow <= 0 {
		tilesPerRow = 16
	}
	return &GridAtlas{reg: reg, TilesPerRow: tilesPerRow}
}

func (a *GridAtlas) UVRect(t Type, f Face, w, h int) UVRect {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	tile := a.reg.Tile(t, f)
	step := 1.0 / float32(a.TilesPerRow)
	u := float32(tile%a.TilesPerRow) * step
	v := float32(tile/a.TilesPerRow) * step
	return UVRect{
		Min: mgl32.Vec2{u, v},
		Max: mgl32.Vec2{u + step*float32(w), v + step*float32(h)},
	}
}
