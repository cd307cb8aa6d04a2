package engine

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"voxeld/internal/profiling"
	"voxeld/internal/world"
)

// UpdateLoadedSet reconciles residency against the given viewpoints: chunks
// within the view radius of any viewpoint are loaded, chunks beyond the
// unload radius of all of them are written back and dropped. The gap between
// the two radii is a hysteresis band where chunks stay as they are, so a
// viewpoint dithering on a chunk border does not thrash the cache.
//
// Loads run concurrently but the fan-out is bounded; the call returns when
// the pass completes.
func (w *World) UpdateLoadedSet(ctx context.Context, viewpoints []world.ChunkCoord) {
	defer profiling.Track("engine.UpdateLoadedSet")()

	w.vpMu.Lock()
	w.viewpoints = append(w.viewpoints[:0], viewpoints...)
	w.vpMu.Unlock()

	want := discUnion(viewpoints, w.cfg.World.ViewRadius)
	keep := discUnion(viewpoints, w.cfg.World.UnloadRadius)
	simSq := w.cfg.World.SimRadius * w.cfg.World.SimRadius

	w.mu.Lock()
	for coord, c := range w.chunks {
		if _, keepIt := keep[coord]; keepIt {
			continue
		}
		if err := w.unloadLocked(c); err != nil {
			log.Printf("engine: unload chunk (%d,%d): %v", coord.X, coord.Z, err)
		}
	}
	for coord := range w.inflight {
		if _, keepIt := keep[coord]; !keepIt {
			w.deferredUnload[coord] = struct{}{}
		}
	}
	// A coordinate back inside the keep set rescinds any pending deferred
	// unload, so a viewpoint swinging away and back keeps the resolving load.
	for coord := range w.deferredUnload {
		if _, keepIt := keep[coord]; keepIt {
			delete(w.deferredUnload, coord)
		}
	}

	var missing []world.ChunkCoord
	for coord := range want {
		if _, ok := w.chunks[coord]; ok {
			continue
		}
		if _, ok := w.inflight[coord]; ok {
			continue
		}
		missing = append(missing, coord)
	}
	w.mu.Unlock()

	// Nearest chunks first, so the area around each viewpoint fills in
	// before the fringe.
	sort.Slice(missing, func(i, j int) bool {
		return minDistSq(viewpoints, missing[i]) < minDistSq(viewpoints, missing[j])
	})

	fanout := w.cfg.Cache.LoadFanout
	for start := 0; start < len(missing); start += fanout {
		if ctx.Err() != nil {
			break
		}
		end := start + fanout
		if end > len(missing) {
			end = len(missing)
		}
		var wg sync.WaitGroup
		for _, coord := range missing[start:end] {
			wg.Add(1)
			go func(coord world.ChunkCoord) {
				defer wg.Done()
				_, err := w.LoadChunk(ctx, coord)
				if err != nil && !errors.Is(err, ErrLoadInFlight) && !errors.Is(err, ErrUnloadedWhileLoading) {
					log.Printf("engine: load chunk (%d,%d): %v", coord.X, coord.Z, err)
				}
			}(coord)
		}
		wg.Wait()
	}

	// Activate the inner simulation disc; everything else drops back to the
	// passive loaded state.
	w.mu.Lock()
	for coord, c := range w.chunks {
		if !c.Resident() {
			continue
		}
		active := minDistSq(viewpoints, coord) <= simSq
		lock := w.chunkLock(coord)
		lock.Lock()
		switch {
		case active && c.LoadState() == world.LoadLoaded:
			if err := c.SetLoadState(world.LoadActive); err != nil {
				log.Printf("engine: activate chunk (%d,%d): %v", coord.X, coord.Z, err)
			}
		case !active && c.LoadState() == world.LoadActive:
			if err := c.SetLoadState(world.LoadLoaded); err != nil {
				log.Printf("engine: deactivate chunk (%d,%d): %v", coord.X, coord.Z, err)
			}
		}
		lock.Unlock()
	}
	w.mu.Unlock()
}

// discUnion collects every chunk coordinate within radius of any viewpoint.
func discUnion(viewpoints []world.ChunkCoord, radius int) map[world.ChunkCoord]struct{} {
	out := make(map[world.ChunkCoord]struct{})
	rSq := radius * radius
	for _, vp := range viewpoints {
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx*dx+dz*dz > rSq {
					continue
				}
				out[world.ChunkCoord{X: vp.X + dx, Z: vp.Z + dz}] = struct{}{}
			}
		}
	}
	return out
}

func minDistSq(viewpoints []world.ChunkCoord, coord world.ChunkCoord) int {
	if len(viewpoints) == 0 {
		return 0
	}
	best := viewpoints[0].DistSq(coord)
	for _, vp := range viewpoints[1:] {
		if d := vp.DistSq(coord); d < best {
			best = d
		}
	}
	return best
}
