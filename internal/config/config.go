// Package config loads engine configuration from YAML with sane defaults,
// so the engine runs without any config file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	World     WorldConfig     `yaml:"world"`
	Cache     CacheConfig     `yaml:"cache"`
	Mesher    MesherConfig    `yaml:"mesher"`
	Storage   StorageConfig   `yaml:"storage"`
	Transport TransportConfig `yaml:"transport"`
}

type WorldConfig struct {
	Seed int64 `yaml:"seed"`
	// ViewRadius is the load disc radius in chunks around each viewpoint.
	ViewRadius int `yaml:"view_radius"`
	// UnloadRadius must exceed ViewRadius; the gap is the hysteresis band
	// that keeps a viewpoint oscillating on a chunk border from thrashing.
	UnloadRadius int `yaml:"unload_radius"`
	// SimRadius bounds the inner disc whose chunks are marked active.
	SimRadius int `yaml:"sim_radius"`
}

type CacheConfig struct {
	// Capacity is the maximum number of resident chunks.
	Capacity int `yaml:"capacity"`
	// LoadFanout bounds concurrent loads per update pass.
	LoadFanout int `yaml:"load_fanout"`
	// DrainIntervalMS is the cadence of the background update drain.
	DrainIntervalMS int `yaml:"drain_interval_ms"`
	// DrainBudget is the maximum dirty chunks remeshed per drain pass.
	DrainBudget int `yaml:"drain_budget"`
}

type MesherConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
	// LODStep is the distance in chunks per LOD level increase, 0 disables LOD.
	LODStep int `yaml:"lod_step"`
}

type StorageConfig struct {
	// Backend selects "file" or "leveldb".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type TransportConfig struct {
	// Addr is the listen address of the websocket event server; empty
	// disables the server.
	Addr string `yaml:"addr"`
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:         42,
			ViewRadius:   8,
			UnloadRadius: 10,
			SimRadius:    4,
		},
		Cache: CacheConfig{
			Capacity:        512,
			LoadFanout:      4,
			DrainIntervalMS: 50,
			DrainBudget:     16,
		},
		Mesher: MesherConfig{
			Workers:   4,
			QueueSize: 256,
			LODStep:   6,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data/world",
		},
		Transport: TransportConfig{
			Addr: "",
		},
	}
}

// Load reads a YAML config file, applying defaults for absent fields. An
// empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.World.ViewRadius < 1 {
		return fmt.Errorf("world.view_radius must be >= 1, got %d", c.World.ViewRadius)
	}
	if c.World.UnloadRadius <= c.World.ViewRadius {
		return fmt.Errorf("world.unload_radius (%d) must exceed world.view_radius (%d)",
			c.World.UnloadRadius, c.World.ViewRadius)
	}
	if c.World.SimRadius < 0 || c.World.SimRadius > c.World.ViewRadius {
		return fmt.Errorf("world.sim_radius must be in [0, view_radius], got %d", c.World.SimRadius)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be >= 1, got %d", c.Cache.Capacity)
	}
	if c.Cache.LoadFanout < 1 {
		return fmt.Errorf("cache.load_fanout must be >= 1, got %d", c.Cache.LoadFanout)
	}
	if c.Cache.DrainIntervalMS < 1 {
		return fmt.Errorf("cache.drain_interval_ms must be >= 1, got %d", c.Cache.DrainIntervalMS)
	}
	if c.Cache.DrainBudget < 1 {
		return fmt.Errorf("cache.drain_budget must be >= 1, got %d", c.Cache.DrainBudget)
	}
	if c.Mesher.Workers < 1 {
		return fmt.Errorf("mesher.workers must be >= 1, got %d", c.Mesher.Workers)
	}
	if c.Mesher.LODStep < 0 {
		return fmt.Errorf("mesher.lod_step must be >= 0, got %d", c.Mesher.LODStep)
	}
	switch c.Storage.Backend {
	case "file", "leveldb":
	default:
		return fmt.Errorf("storage.backend must be \"file\" or \"leveldb\", got %q", c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	return nil
}
