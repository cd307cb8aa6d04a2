package worldgen

import "voxeld/internal/block"

// Biome holds the column-fill palette for one terrain type.
type Biome struct {
	ID   uint8
	Name string

	Surface block.Type
	Soil    block.Type
	Stone   block.Type
	// SoilDepth is how many blocks of soil sit under the surface block.
	SoilDepth int
}

var (
	BiomePlains = &Biome{
		ID: 0, Name: "plains",
		Surface: block.Grass, Soil: block.Dirt, Stone: block.Stone, SoilDepth: 3,
	}
	BiomeForest = &Biome{
		ID: 1, Name: "forest",
		Surface: block.Grass, Soil: block.Dirt, Stone: block.Stone, SoilDepth: 4,
	}
	BiomeDesert = &Biome{
		ID: 2, Name: "desert",
		Surface: block.Sand, Soil: block.Sandstone, Stone: block.Stone, SoilDepth: 4,
	}
	BiomeMountains = &Biome{
		ID: 3, Name: "mountains",
		Surface: block.Stone, Soil: block.Stone, Stone: block.Stone, SoilDepth: 1,
	}
	BiomeTundra = &Biome{
		ID: 4, Name: "tundra",
		Surface: block.Snow, Soil: block.Dirt, Stone: block.Stone, SoilDepth: 2,
	}
)

// Biomes is indexed by Biome.ID.
var Biomes = []*Biome{BiomePlains, BiomeForest, BiomeDesert, BiomeMountains, BiomeTundra}

// BiomeByID resolves a persisted biome id, falling back to plains for ids
// written by newer palettes.
func BiomeByID(id uint8) *Biome {
	if int(id) < len(Biomes) {
		return Biomes[id]
	}
	return BiomePlains
}

// ClassifyBiome is the pure classification lookup from the three climate
// fields, each in [0,1]. Order matters: extremes win over the humidity split.
func ClassifyBiome(temperature, humidity, weirdness float64) *Biome {
	switch {
	case weirdness > 0.72:
		return BiomeMountains
	case temperature < 0.32:
		return BiomeTundra
	case temperature > 0.62 && humidity < 0.42:
		return BiomeDesert
	case humidity > 0.55:
		return BiomeForest
	default:
		return BiomePlains
	}
}
