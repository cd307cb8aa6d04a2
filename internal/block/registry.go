package block

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Definition describes the physical and visual properties of a block type.
type Definition struct {
	ID   Type
	Name string

	Solid       bool
	Transparent bool
	Liquid      bool
	// LightEmission in [0,15]; 0 for non-emitting blocks.
	LightEmission uint8

	// Atlas tile indices per face group.
	TileTop  int
	TileSide int
	TileBot  int

	// Tint multiplied into vertex colors. White means untinted.
	Tint mgl32.Vec3
}

// Registry maps block types to their definitions. Lookups for unregistered
// types fall back to a non-solid, fully transparent definition so malformed
// data degrades to invisible blocks instead of panicking.
type Registry struct {
	defs map[Type]*Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[Type]*Definition)}
}

func (r *Registry) Register(def *Definition) {
	if def.Tint == (mgl32.Vec3{}) {
		def.Tint = mgl32.Vec3{1, 1, 1}
	}
	r.defs[def.ID] = def
}

var fallback = &Definition{Name: "unknown", Transparent: true, Tint: mgl32.Vec3{1, 1, 1}}

func (r *Registry) Get(t Type) *Definition {
	if def, ok := r.defs[t]; ok {
		return def
	}
	return fallback
}

func (r *Registry) IsSolid(t Type) bool       { return r.Get(t).Solid }
func (r *Registry) IsTransparent(t Type) bool { return r.Get(t).Transparent }
func (r *Registry) IsLiquid(t Type) bool      { return r.Get(t).Liquid }

// IsOpaque reports whether the block fully occludes faces behind it.
func (r *Registry) IsOpaque(t Type) bool {
	def := r.Get(t)
	return def.Solid && !def.Transparent
}

func (r *Registry) LightEmission(t Type) uint8 { return r.Get(t).LightEmission }

// Tile returns the atlas tile index for a block face.
func (r *Registry) Tile(t Type, f Face) int {
	def := r.Get(t)
	switch f {
	case FaceTop:
		return def.TileTop
	case FaceBottom:
		return def.TileBot
	default:
		return def.TileSide
	}
}

// DefaultRegistry returns the built-in block set used by the world core.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&Definition{ID: Air, Name: "air", Transparent: true})
	r.Register(&Definition{
		ID: Grass, Name: "grass", Solid: true,
		TileTop: 0, TileSide: 1, TileBot: 2,
		Tint: mgl32.Vec3{0.49, 1.0, 0.36},
	})
	r.Register(&Definition{ID: Dirt, Name: "dirt", Solid: true, TileTop: 2, TileSide: 2, TileBot: 2})
	r.Register(&Definition{ID: Stone, Name: "stone", Solid: true, TileTop: 3, TileSide: 3, TileBot: 3})
	r.Register(&Definition{ID: Bedrock, Name: "bedrock", Solid: true, TileTop: 4, TileSide: 4, TileBot: 4})
	r.Register(&Definition{ID: Sand, Name: "sand", Solid: true, TileTop: 5, TileSide: 5, TileBot: 5})
	r.Register(&Definition{ID: Sandstone, Name: "sandstone", Solid: true, TileTop: 6, TileSide: 6, TileBot: 6})
	r.Register(&Definition{ID: Gravel, Name: "gravel", Solid: true, TileTop: 7, TileSide: 7, TileBot: 7})
	r.Register(&Definition{ID: Snow, Name: "snow", Solid: true, TileTop: 8, TileSide: 8, TileBot: 8})
	r.Register(&Definition{
		ID: Water, Name: "water", Transparent: true, Liquid: true,
		TileTop: 9, TileSide: 9, TileBot: 9,
		Tint: mgl32.Vec3{0.25, 0.45, 0.9},
	})
	r.Register(&Definition{ID: Leaves, Name: "leaves", Solid: true, Transparent: true, TileTop: 10, TileSide: 10, TileBot: 10, Tint: mgl32.Vec3{0.35, 0.8, 0.3}})
	r.Register(&Definition{ID: Glass, Name: "glass", Solid: true, Transparent: true, TileTop: 11, TileSide: 11, TileBot: 11})
	r.Register(&Definition{ID: CoalOre, Name: "coal_ore", Solid: true, TileTop: 12, TileSide: 12, TileBot: 12})
	r.Register(&Definition{ID: IronOre, Name: "iron_ore", Solid: true, TileTop: 13, TileSide: 13, TileBot: 13})
	r.Register(&Definition{ID: GoldOre, Name: "gold_ore", Solid: true, TileTop: 14, TileSide: 14, TileBot: 14})
	r.Register(&Definition{ID: RedstoneOre, Name: "redstone_ore", Solid: true, TileTop: 15, TileSide: 15, TileBot: 15})
	r.Register(&Definition{ID: DiamondOre, Name: "diamond_ore", Solid: true, TileTop: 16, TileSide: 16, TileBot: 16})
	r.Register(&Definition{ID: Glowstone, Name: "glowstone", Solid: true, LightEmission: 15, TileTop: 17, TileSide: 17, TileBot: 17})

	return r
}
