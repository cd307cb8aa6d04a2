package worldgen

import "math"

// Deterministic value noise over an integer lattice. Lattice values come
// from a SplitMix64-style hash, so the same (coordinate, seed) pair always
// samples the same field without any state or tables.

// fade is the smoothstep-like curve 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func hash2(x, z int64, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func hash3(x, y, z int64, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func lattice2(x, z int64, seed int64) float64 {
	return float64(hash2(x, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func lattice3(x, y, z int64, seed int64) float64 {
	return float64(hash3(x, y, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

// valueNoise2D returns smoothed noise in [0,1].
func valueNoise2D(x, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)

	fx := fade(x - x0)
	fz := fade(z - z0)

	ix0 := int64(x0)
	iz0 := int64(z0)

	v00 := lattice2(ix0, iz0, seed)
	v10 := lattice2(ix0+1, iz0, seed)
	v01 := lattice2(ix0, iz0+1, seed)
	v11 := lattice2(ix0+1, iz0+1, seed)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fz)
}

// valueNoise3D returns smoothed noise in [0,1] via trilinear interpolation
// over the 8 surrounding lattice corners.
func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	z0 := math.Floor(z)

	fx := fade(x - x0)
	fy := fade(y - y0)
	fz := fade(z - z0)

	ix0 := int64(x0)
	iy0 := int64(y0)
	iz0 := int64(z0)

	v000 := lattice3(ix0, iy0, iz0, seed)
	v100 := lattice3(ix0+1, iy0, iz0, seed)
	v010 := lattice3(ix0, iy0+1, iz0, seed)
	v110 := lattice3(ix0+1, iy0+1, iz0, seed)
	v001 := lattice3(ix0, iy0, iz0+1, seed)
	v101 := lattice3(ix0+1, iy0, iz0+1, seed)
	v011 := lattice3(ix0, iy0+1, iz0+1, seed)
	v111 := lattice3(ix0+1, iy0+1, iz0+1, seed)

	i00 := lerp(v000, v100, fx)
	i10 := lerp(v010, v110, fx)
	i01 := lerp(v001, v101, fx)
	i11 := lerp(v011, v111, fx)

	return lerp(lerp(i00, i10, fy), lerp(i01, i11, fy), fz)
}

// octaveNoise2D sums octaves with the given persistence and lacunarity,
// normalized back to [0,1]. Each octave reseeds the lattice.
func octaveNoise2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += valueNoise2D(x*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

func octaveNoise3D(x, y, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += valueNoise3D(x*frequency, y*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
