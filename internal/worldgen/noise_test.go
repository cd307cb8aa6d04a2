package worldgen

import "testing"

func TestValueNoiseRange(t *testing.T) {
	for i := 0; i < 2000; i++ {
		x := float64(i)*0.37 - 300
		z := float64(i)*0.61 - 150
		if n := valueNoise2D(x, z, 42); n < 0 || n > 1 {
			t.Fatalf("valueNoise2D(%f,%f) = %f out of [0,1]", x, z, n)
		}
		if n := valueNoise3D(x, z, x+z, 42); n < 0 || n > 1 {
			t.Fatalf("valueNoise3D out of [0,1]: %f", n)
		}
		if n := octaveNoise2D(x, z, 42, 4, 0.5, 2.0); n < 0 || n > 1 {
			t.Fatalf("octaveNoise2D out of [0,1]: %f", n)
		}
	}
}

func TestValueNoiseLatticeExact(t *testing.T) {
	// On lattice points the interpolation weights vanish, so the noise equals
	// the hashed lattice value.
	for _, p := range [][2]int64{{0, 0}, {5, -3}, {-17, 42}} {
		want := lattice2(p[0], p[1], 99)
		got := valueNoise2D(float64(p[0]), float64(p[1]), 99)
		if got != want {
			t.Errorf("valueNoise2D(%d,%d) = %f, want lattice value %f", p[0], p[1], got, want)
		}
	}
}

func TestNoiseSeedIndependence(t *testing.T) {
	same := 0
	const samples = 100
	for i := 0; i < samples; i++ {
		x := float64(i) * 0.73
		z := float64(i) * 1.21
		if valueNoise2D(x, z, 1) == valueNoise2D(x, z, 2) {
			same++
		}
	}
	if same > samples/10 {
		t.Errorf("%d/%d samples identical across seeds", same, samples)
	}
}

func TestFadeEndpoints(t *testing.T) {
	if fade(0) != 0 || fade(1) != 1 {
		t.Errorf("fade endpoints: fade(0)=%f fade(1)=%f", fade(0), fade(1))
	}
	if fade(0.5) != 0.5 {
		t.Errorf("fade(0.5) = %f, want 0.5", fade(0.5))
	}
}

func TestHashNegativeCoordinates(t *testing.T) {
	// Negative world coordinates must hash as stably as positive ones.
	if hash2(-1, -1, 42) == hash2(1, 1, 42) {
		t.Error("hash2 collides on sign flip")
	}
	a := hash3(-100, 5, -7, 9)
	b := hash3(-100, 5, -7, 9)
	if a != b {
		t.Error("hash3 is not deterministic")
	}
}
