package worldgen

import (
	"errors"
	"fmt"
	"math"

	"voxeld/internal/block"
	"voxeld/internal/world"
)

// Seed offsets keep the independent noise fields uncorrelated while staying
// a pure function of the single world seed.
const (
	seedErosion     = 1000
	seedPeaks       = 2000
	seedTemperature = 5000
	seedHumidity    = 6000
	seedWeirdness   = 7000
	seedCaves       = 9000
)

// GenerationError scopes a failure to a single chunk coordinate. The loading
// manager treats it as fatal for that coordinate only.
type GenerationError struct {
	Coord world.ChunkCoord
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate chunk (%d,%d): %v", e.Coord.X, e.Coord.Z, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// OreConfig drives one ore injection pass.
type OreConfig struct {
	Block block.Type
	// Threshold on the per-voxel 3D noise in [0,1]; higher means rarer.
	Threshold float64
	// VeinSize is the fixed number of random-walk steps per seeded vein.
	VeinSize int
	// MaxY bounds the ore to lower terrain.
	MaxY int
	// Scale is the noise frequency (blocks per lattice cell inverse).
	Scale float64

	seedOffset int64
}

// Generator synthesizes chunk data deterministically from (coordinate, seed).
// Two calls with identical inputs produce byte-identical chunk data; there is
// no shared mutable state, so a failed generation leaves nothing behind.
type Generator struct {
	seed int64

	baseElevation float64

	continentalScale float64
	continentalAmp   float64
	erosionScale     float64
	erosionAmp       float64
	peaksScale       float64
	peaksAmp         float64

	climateScale float64

	caveScale     float64
	caveThreshold float64
	// Caves are carved strictly below caveCeiling; carved voxels below
	// waterLevel flood instead of opening to air.
	caveCeiling int
	waterLevel  int

	ores []OreConfig
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed: seed,

		baseElevation: 64,

		continentalScale: 1.0 / 512.0,
		continentalAmp:   40,
		erosionScale:     1.0 / 128.0,
		erosionAmp:       14,
		peaksScale:       1.0 / 64.0,
		peaksAmp:         20,

		climateScale: 1.0 / 400.0,

		caveScale:     1.0 / 24.0,
		caveThreshold: 0.64,
		caveCeiling:   60,
		waterLevel:    30,

		ores: []OreConfig{
			{Block: block.CoalOre, Threshold: 0.78, VeinSize: 12, MaxY: 128, Scale: 1.0 / 7.0, seedOffset: 11000},
			{Block: block.IronOre, Threshold: 0.80, VeinSize: 8, MaxY: 64, Scale: 1.0 / 7.0, seedOffset: 12000},
			{Block: block.GoldOre, Threshold: 0.84, VeinSize: 6, MaxY: 32, Scale: 1.0 / 6.0, seedOffset: 13000},
			{Block: block.RedstoneOre, Threshold: 0.84, VeinSize: 7, MaxY: 16, Scale: 1.0 / 6.0, seedOffset: 14000},
			{Block: block.DiamondOre, Threshold: 0.86, VeinSize: 5, MaxY: 12, Scale: 1.0 / 5.0, seedOffset: 15000},
		},
	}
}

func (g *Generator) validate() error {
	if g.caveThreshold <= 0 || g.caveThreshold >= 1 {
		return errors.New("cave threshold outside (0,1)")
	}
	if g.baseElevation < 1 || g.baseElevation > world.SizeY-1 {
		return errors.New("base elevation outside world height")
	}
	for _, ore := range g.ores {
		if ore.VeinSize < 1 || ore.MaxY < 1 || ore.MaxY > world.SizeY-1 {
			return fmt.Errorf("ore %d: bad vein/height bounds", ore.Block)
		}
	}
	return nil
}

// GenerateChunk builds the full chunk data for a coordinate: height map,
// biome map, column fill, then sequential cave and ore passes over the same
// data. The result is marked dirty and needing lighting and decoration.
func (g *Generator) GenerateChunk(coord world.ChunkCoord) (*world.ChunkData, error) {
	if err := g.validate(); err != nil {
		return nil, &GenerationError{Coord: coord, Err: err}
	}

	d := world.NewChunkData(coord)

	for lz := 0; lz < world.SizeZ; lz++ {
		for lx := 0; lx < world.SizeX; lx++ {
			wx := coord.X*world.SizeX + lx
			wz := coord.Z*world.SizeZ + lz

			h := g.heightAt(wx, wz)
			biome := g.biomeAt(wx, wz)

			ci := world.ColumnIndex(lx, lz)
			d.HeightMap[ci] = uint8(h)
			d.BiomeMap[ci] = biome.ID

			g.fillColumn(d, lx, lz, h, biome)
		}
	}

	g.carveCaves(d)
	g.injectOres(d)

	d.Dirty = true
	d.NeedsLighting = true
	d.NeedsDecoration = true
	return d, nil
}

// heightAt combines the three independent terrain fields additively around
// the base elevation and clamps to [1,255].
func (g *Generator) heightAt(wx, wz int) int {
	x := float64(wx)
	z := float64(wz)

	continental := octaveNoise2D(x*g.continentalScale, z*g.continentalScale, g.seed, 4, 0.5, 2.0)
	erosion := octaveNoise2D(x*g.erosionScale, z*g.erosionScale, g.seed+seedErosion, 3, 0.5, 2.0)
	peaks := octaveNoise2D(x*g.peaksScale, z*g.peaksScale, g.seed+seedPeaks, 2, 0.5, 2.0)

	h := g.baseElevation
	h += (continental*2 - 1) * g.continentalAmp
	h += (erosion*2 - 1) * g.erosionAmp
	h += (peaks*2 - 1) * g.peaksAmp

	if h < 1 {
		h = 1
	}
	if h > world.SizeY-1 {
		h = world.SizeY - 1
	}
	return int(math.Floor(h))
}

func (g *Generator) biomeAt(wx, wz int) *Biome {
	x := float64(wx) * g.climateScale
	z := float64(wz) * g.climateScale

	temperature := octaveNoise2D(x, z, g.seed+seedTemperature, 2, 0.5, 2.0)
	humidity := octaveNoise2D(x, z, g.seed+seedHumidity, 2, 0.5, 2.0)
	weirdness := octaveNoise2D(x, z, g.seed+seedWeirdness, 2, 0.5, 2.0)

	return ClassifyBiome(temperature, humidity, weirdness)
}

// fillColumn writes one terrain column: bedrock floor, stone body, soil
// layer, surface block. Writes go straight to the block array; generation
// owns the fresh chunk and must stay byte-deterministic.
func (g *Generator) fillColumn(d *world.ChunkData, lx, lz, height int, biome *Biome) {
	d.Blocks[world.Index(lx, 0, lz)] = block.Bedrock

	soilStart := height - biome.SoilDepth
	if soilStart < 1 {
		soilStart = 1
	}
	for y := 1; y < soilStart; y++ {
		d.Blocks[world.Index(lx, y, lz)] = biome.Stone
	}
	for y := soilStart; y < height; y++ {
		d.Blocks[world.Index(lx, y, lz)] = biome.Soil
	}
	d.Blocks[world.Index(lx, height, lz)] = biome.Surface
}

// carveCaves opens 3D-noise cavities below the cave ceiling. Only stone is
// replaced; bedrock and soil layers survive. Below the water level the
// cavity floods.
func (g *Generator) carveCaves(d *world.ChunkData) {
	for lz := 0; lz < world.SizeZ; lz++ {
		for lx := 0; lx < world.SizeX; lx++ {
			wx := d.Coord.X*world.SizeX + lx
			wz := d.Coord.Z*world.SizeZ + lz
			for y := 1; y < g.caveCeiling; y++ {
				i := world.Index(lx, y, lz)
				if d.Blocks[i] != block.Stone {
					continue
				}
				n := octaveNoise3D(float64(wx)*g.caveScale, float64(y)*g.caveScale, float64(wz)*g.caveScale,
					g.seed+seedCaves, 2, 0.5, 2.0)
				if n <= g.caveThreshold {
					continue
				}
				if y < g.waterLevel {
					d.Blocks[i] = block.Water
				} else {
					d.Blocks[i] = block.Air
				}
			}
		}
	}
}

// injectOres runs one pass per ore type: a per-voxel 3D noise gate seeds a
// vein, then a bounded random walk grows it. Steps are derived from hashed
// noise, clamped to chunk bounds, and only ever overwrite stone.
func (g *Generator) injectOres(d *world.ChunkData) {
	for _, ore := range g.ores {
		oreSeed := g.seed + ore.seedOffset
		for lz := 0; lz < world.SizeZ; lz++ {
			for lx := 0; lx < world.SizeX; lx++ {
				wx := d.Coord.X*world.SizeX + lx
				wz := d.Coord.Z*world.SizeZ + lz
				for y := 1; y <= ore.MaxY; y++ {
					if d.Blocks[world.Index(lx, y, lz)] != block.Stone {
						continue
					}
					n := valueNoise3D(float64(wx)*ore.Scale, float64(y)*ore.Scale, float64(wz)*ore.Scale, oreSeed)
					if n > ore.Threshold {
						g.growVein(d, ore, oreSeed, lx, y, lz)
					}
				}
			}
		}
	}
}

func (g *Generator) growVein(d *world.ChunkData, ore OreConfig, oreSeed int64, lx, ly, lz int) {
	x, y, z := lx, ly, lz
	for step := 0; step < ore.VeinSize; step++ {
		i := world.Index(x, y, z)
		if d.Blocks[i] == block.Stone {
			d.Blocks[i] = ore.Block
		}

		wx := int64(d.Coord.X*world.SizeX + x)
		wz := int64(d.Coord.Z*world.SizeZ + z)
		h := hash3(wx, int64(y), wz, oreSeed+int64(step))
		x = clampInt(x+int(h%3)-1, 0, world.SizeX-1)
		y = clampInt(y+int((h>>2)%3)-1, 1, world.SizeY-1)
		z = clampInt(z+int((h>>4)%3)-1, 0, world.SizeZ-1)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
