package block

import "testing"

func TestDefaultRegistryClasses(t *testing.T) {
	r := DefaultRegistry()

	if r.IsSolid(Air) || !r.IsTransparent(Air) {
		t.Error("air must be non-solid and transparent")
	}
	if !r.IsOpaque(Stone) {
		t.Error("stone must be opaque")
	}
	if r.IsOpaque(Glass) || !r.IsSolid(Glass) {
		t.Error("glass must be solid but not opaque")
	}
	if !r.IsLiquid(Water) || r.IsSolid(Water) || r.IsOpaque(Water) {
		t.Error("water must be a non-solid, non-opaque liquid")
	}
	if r.LightEmission(Glowstone) != 15 {
		t.Errorf("glowstone emission %d, want 15", r.LightEmission(Glowstone))
	}
	if r.LightEmission(Stone) != 0 {
		t.Error("stone emits light")
	}
}

func TestUnknownTypeFallsBack(t *testing.T) {
	r := DefaultRegistry()
	const bogus Type = 9999
	if r.IsSolid(bogus) || r.IsOpaque(bogus) {
		t.Error("unknown block must degrade to non-solid")
	}
	if r.Get(bogus).Name != "unknown" {
		t.Errorf("fallback name %q", r.Get(bogus).Name)
	}
}

func TestGrassFaceTiles(t *testing.T) {
	r := DefaultRegistry()
	top := r.Tile(Grass, FaceTop)
	side := r.Tile(Grass, FaceNorth)
	bot := r.Tile(Grass, FaceBottom)
	if top == side || side != r.Tile(Grass, FaceEast) {
		t.Errorf("grass tiles top=%d side=%d", top, side)
	}
	if bot != r.Tile(Dirt, FaceTop) {
		t.Error("grass underside should share the dirt tile")
	}
}

func TestRegisterDefaultsTint(t *testing.T) {
	r := NewRegistry()
	r.Register(&Definition{ID: 100, Name: "test", Solid: true})
	tint := r.Get(100).Tint
	if tint.X() != 1 || tint.Y() != 1 || tint.Z() != 1 {
		t.Errorf("unset tint defaulted to %v, want white", tint)
	}
}

func TestGridAtlasUVs(t *testing.T) {
	r := DefaultRegistry()
	a := NewGridAtlas(r, 16)

	uv := a.UVRect(Stone, FaceTop, 1, 1)
	step := float32(1.0 / 16.0)
	if uv.Max.X()-uv.Min.X() != step || uv.Max.Y()-uv.Min.Y() != step {
		t.Errorf("unit tile spans %v", uv)
	}

	// Merged quads stretch the rect so the tile repeats per block.
	wide := a.UVRect(Stone, FaceTop, 4, 2)
	if wide.Max.X()-wide.Min.X() != 4*step || wide.Max.Y()-wide.Min.Y() != 2*step {
		t.Errorf("4x2 quad spans %v", wide)
	}
	if wide.Min != uv.Min {
		t.Error("merged quad moved the tile origin")
	}
}

func TestFaceString(t *testing.T) {
	faces := []Face{FaceEast, FaceWest, FaceTop, FaceBottom, FaceNorth, FaceSouth}
	seen := map[string]bool{}
	for _, f := range faces {
		s := f.String()
		if s == "" || seen[s] {
			t.Errorf("face %d has name %q", f, s)
		}
		seen[s] = true
	}
}
