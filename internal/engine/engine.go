// Package engine is the chunk cache and loading manager: it owns chunk
// residency, orchestrates generation, lighting, meshing and persistence, and
// serializes block mutations per chunk.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"voxeld/internal/block"
	"voxeld/internal/codec"
	"voxeld/internal/config"
	"voxeld/internal/light"
	"voxeld/internal/meshing"
	"voxeld/internal/profiling"
	"voxeld/internal/storage"
	"voxeld/internal/world"
	"voxeld/internal/worldgen"
)

// ErrLoadInFlight is returned when a load is requested for a chunk that is
// already being loaded. Callers treat it as "come back later", not a failure.
var ErrLoadInFlight = errors.New("engine: chunk load already in flight")

// ErrUnloadedWhileLoading is returned when a chunk left the loaded set while
// its load was still resolving. The loaded data is discarded, not installed.
var ErrUnloadedWhileLoading = errors.New("engine: chunk unloaded while loading")

// ErrChunkNotLoaded is returned by block operations on non-resident chunks.
var ErrChunkNotLoaded = errors.New("engine: chunk not loaded")

// World is the resident chunk set plus everything needed to fill it.
// All exported methods are safe for concurrent use.
type World struct {
	cfg   *config.Config
	reg   *block.Registry
	gen   *worldgen.Generator
	light *light.Engine
	store storage.Backend
	pool  *meshing.WorkerPool

	// mu guards the residency maps. Slow work (storage, generation, meshing)
	// happens outside it; only map surgery and state transitions hold it.
	mu       sync.Mutex
	chunks   map[world.ChunkCoord]*world.Chunk
	inflight map[world.ChunkCoord]struct{}
	// deferredUnload marks in-flight chunks that left the loaded set before
	// their load resolved. The load completes, persists if dirty, and the
	// chunk is never installed.
	deferredUnload map[world.ChunkCoord]struct{}

	// locks serializes block mutations per chunk. Striping keeps the array
	// fixed-size while distinct chunks almost always get distinct locks.
	// Residency transitions and write-backs of a published chunk hold both
	// mu and the chunk's lock, so holders of either see a stable state.
	locks [64]sync.Mutex

	// dirtyMu guards the remesh queue drained by the background loop.
	dirtyMu   sync.Mutex
	dirtyMesh map[world.ChunkCoord]struct{}

	// viewpoints from the last UpdateLoadedSet, used to prioritize the drain.
	vpMu       sync.Mutex
	viewpoints []world.ChunkCoord

	events *eventBus

	startOnce sync.Once
	started   atomic.Bool
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewWorld(cfg *config.Config, reg *block.Registry, atlas block.AtlasLookup, store storage.Backend) *World {
	return &World{
		cfg:            cfg,
		reg:            reg,
		gen:            worldgen.NewGenerator(cfg.World.Seed),
		light:          light.NewEngine(reg),
		store:          store,
		pool:           meshing.NewWorkerPool(reg, atlas, cfg.Mesher.Workers, cfg.Mesher.QueueSize),
		chunks:         make(map[world.ChunkCoord]*world.Chunk),
		inflight:       make(map[world.ChunkCoord]struct{}),
		deferredUnload: make(map[world.ChunkCoord]struct{}),
		dirtyMesh:      make(map[world.ChunkCoord]struct{}),
		events:         newEventBus(),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (w *World) chunkLock(coord world.ChunkCoord) *sync.Mutex {
	h := uint64(int64(coord.X))*0x9E3779B97F4A7C15 + uint64(int64(coord.Z))
	h ^= h >> 29
	return &w.locks[h%uint64(len(w.locks))]
}

// Chunk returns the resident chunk at coord, bumping its recency.
func (w *World) Chunk(coord world.ChunkCoord) (*world.Chunk, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.chunks[coord]
	if !ok || !c.Resident() {
		return nil, false
	}
	c.Touch()
	return c, true
}

// ResidentCount returns the number of chunks currently in the cache.
func (w *World) ResidentCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.chunks)
}

// LoadChunk makes a chunk resident: storage first, generation as fallback.
// If the same chunk is already loading, the duplicate request fails fast
// with ErrLoadInFlight instead of doing the work twice.
func (w *World) LoadChunk(ctx context.Context, coord world.ChunkCoord) (*world.Chunk, error) {
	defer profiling.Track("engine.LoadChunk")()

	w.mu.Lock()
	if c, ok := w.chunks[coord]; ok && c.Resident() {
		c.Touch()
		w.mu.Unlock()
		return c, nil
	}
	if _, ok := w.inflight[coord]; ok {
		w.mu.Unlock()
		return nil, ErrLoadInFlight
	}
	w.inflight[coord] = struct{}{}
	w.mu.Unlock()

	data, err := w.fetchOrGenerate(coord)
	if err != nil {
		w.mu.Lock()
		delete(w.inflight, coord)
		delete(w.deferredUnload, coord)
		w.mu.Unlock()
		return nil, err
	}

	if data.NeedsLighting {
		w.light.Relight(data)
	}
	mesh, err := w.pool.Build(ctx, data, w.lodFor(coord))
	if err != nil {
		w.mu.Lock()
		delete(w.inflight, coord)
		delete(w.deferredUnload, coord)
		w.mu.Unlock()
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inflight, coord)

	if _, deferred := w.deferredUnload[coord]; deferred {
		delete(w.deferredUnload, coord)
		if data.Dirty {
			if err := w.persist(data); err != nil {
				log.Printf("engine: persist deferred-unload chunk (%d,%d): %v", coord.X, coord.Z, err)
			}
		}
		return nil, ErrUnloadedWhileLoading
	}

	c := world.NewChunk(coord)
	c.Data = data
	c.Mesh = mesh
	c.FootprintBytes = data.FootprintBytes()
	if err := c.SetLoadState(world.LoadLoading); err != nil {
		return nil, err
	}
	if err := c.SetLoadState(world.LoadLoaded); err != nil {
		return nil, err
	}
	if err := c.AdvanceGen(world.GenReady); err != nil {
		return nil, err
	}
	c.Touch()
	w.chunks[coord] = c
	w.enforceCapacityLocked()
	return c, nil
}

// fetchOrGenerate reads a chunk from storage, regenerating on any miss or
// unusable payload. A version mismatch or corrupt file is logged and
// regenerated rather than failing the load; the stale file is overwritten on
// the next eviction.
func (w *World) fetchOrGenerate(coord world.ChunkCoord) (*world.ChunkData, error) {
	raw, err := w.store.Read(storage.ChunkKey(coord))
	switch {
	case err == nil:
		data, derr := codec.Deserialize(raw)
		if derr == nil {
			if data.Coord != coord {
				return nil, fmt.Errorf("engine: chunk file for (%d,%d) claims (%d,%d)",
					coord.X, coord.Z, data.Coord.X, data.Coord.Z)
			}
			return data, nil
		}
		var vm *codec.VersionMismatchError
		if errors.As(derr, &vm) || errors.Is(derr, codec.ErrCorrupt) {
			log.Printf("engine: regenerating chunk (%d,%d): %v", coord.X, coord.Z, derr)
			return w.gen.GenerateChunk(coord)
		}
		return nil, derr
	case errors.Is(err, storage.ErrNotFound):
		return w.gen.GenerateChunk(coord)
	default:
		return nil, err
	}
}

// lodFor picks a mesh detail level from the distance to the nearest viewpoint.
func (w *World) lodFor(coord world.ChunkCoord) int {
	step := w.cfg.Mesher.LODStep
	if step <= 0 {
		return 0
	}
	w.vpMu.Lock()
	vps := w.viewpoints
	w.vpMu.Unlock()
	if len(vps) == 0 {
		return 0
	}
	best := vps[0].DistSq(coord)
	for _, vp := range vps[1:] {
		if d := vp.DistSq(coord); d < best {
			best = d
		}
	}
	lod := 0
	for d := step; d*d <= best && lod < 4; d += step {
		lod++
	}
	return lod
}

// enforceCapacityLocked evicts least-recently-used chunks until the cache
// fits. Active and in-flight chunks are never evicted; dirty victims are
// persisted before they go.
func (w *World) enforceCapacityLocked() {
	for len(w.chunks) > w.cfg.Cache.Capacity {
		var victim *world.Chunk
		for _, c := range w.chunks {
			if c.LoadState() == world.LoadActive {
				continue
			}
			if _, busy := w.inflight[c.Coord]; busy {
				continue
			}
			if victim == nil || c.LastAccess < victim.LastAccess {
				victim = c
			}
		}
		if victim == nil {
			// Everything resident is active; over-capacity beats data loss.
			return
		}
		if err := w.unloadLocked(victim); err != nil {
			log.Printf("engine: evict chunk (%d,%d): %v", victim.Coord.X, victim.Coord.Z, err)
			return
		}
	}
}

// unloadLocked transitions a chunk out of residency, writing it back first
// if it has unsaved changes. Callers hold mu; the chunk's mutation lock is
// taken for the whole transition so a concurrent UpdateBlock either lands
// before the write-back or observes the chunk gone.
func (w *World) unloadLocked(c *world.Chunk) error {
	lock := w.chunkLock(c.Coord)
	lock.Lock()
	defer lock.Unlock()
	if c.LoadState() == world.LoadActive {
		if err := c.SetLoadState(world.LoadLoaded); err != nil {
			return err
		}
	}
	if err := c.SetLoadState(world.LoadUnloading); err != nil {
		return err
	}
	if c.Data != nil && c.Data.Dirty {
		if err := w.persist(c.Data); err != nil {
			return err
		}
	}
	if err := c.SetLoadState(world.LoadUnloaded); err != nil {
		return err
	}
	delete(w.chunks, c.Coord)
	w.dirtyMu.Lock()
	delete(w.dirtyMesh, c.Coord)
	w.dirtyMu.Unlock()
	return nil
}

func (w *World) persist(d *world.ChunkData) error {
	raw, err := codec.Serialize(d)
	if err != nil {
		return err
	}
	if err := w.store.Write(storage.ChunkKey(d.Coord), raw); err != nil {
		return err
	}
	d.Dirty = false
	return nil
}

// FlushAll persists every dirty resident chunk without unloading anything.
func (w *World) FlushAll() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, c := range w.chunks {
		if c.Data == nil {
			continue
		}
		lock := w.chunkLock(c.Coord)
		lock.Lock()
		if c.Data.Dirty {
			if err := w.persist(c.Data); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		lock.Unlock()
	}
	return firstErr
}

// Close stops the drain loop, flushes dirty chunks and releases the mesher
// and storage backend.
func (w *World) Close() error {
	w.Stop()
	err := w.FlushAll()
	w.pool.Shutdown()
	w.events.closeAll()
	if cerr := w.store.Close(); err == nil {
		err = cerr
	}
	return err
}
