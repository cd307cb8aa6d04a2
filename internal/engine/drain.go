package engine

import (
	"context"
	"log"
	"sort"
	"time"

	"voxeld/internal/profiling"
	"voxeld/internal/world"
)

// Start launches the background drain loop that turns accumulated block
// mutations into fresh light planes and meshes. Each pass rebuilds at most
// the configured budget of chunks, nearest viewpoints first, so a burst of
// edits degrades mesh freshness instead of stalling mutations.
func (w *World) Start() {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.drainLoop()
	})
}

// Stop halts the drain loop and waits for the in-progress pass to finish.
// Stopping a world that was never started is a no-op.
func (w *World) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.Load() {
		<-w.done
	}
}

// profileReportInterval is how often the drain loop logs its slowest tracked
// operations and opens a fresh measuring window.
const profileReportInterval = time.Minute

func (w *World) drainLoop() {
	defer close(w.done)
	ticker := time.NewTicker(time.Duration(w.cfg.Cache.DrainIntervalMS) * time.Millisecond)
	defer ticker.Stop()
	report := time.NewTicker(profileReportInterval)
	defer report.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.drainPass()
		case <-report.C:
			if top := profiling.TopN(5); top != "" {
				log.Printf("engine: slowest operations last interval: %s", top)
			}
			profiling.Reset()
		}
	}
}

// DrainPending runs drain passes until the remesh queue is empty. Useful at
// shutdown and in tests; the steady state relies on the ticker instead.
func (w *World) DrainPending() {
	for w.drainPass() > 0 {
	}
}

// drainPass rebuilds up to the budget of dirty chunks and reports how many
// remain queued.
func (w *World) drainPass() int {
	defer profiling.Track("engine.drainPass")()

	w.dirtyMu.Lock()
	pending := make([]world.ChunkCoord, 0, len(w.dirtyMesh))
	for coord := range w.dirtyMesh {
		pending = append(pending, coord)
	}
	w.dirtyMu.Unlock()
	if len(pending) == 0 {
		return 0
	}

	w.vpMu.Lock()
	vps := append([]world.ChunkCoord(nil), w.viewpoints...)
	w.vpMu.Unlock()
	sort.Slice(pending, func(i, j int) bool {
		return minDistSq(vps, pending[i]) < minDistSq(vps, pending[j])
	})

	budget := w.cfg.Cache.DrainBudget
	if budget > len(pending) {
		budget = len(pending)
	}
	for _, coord := range pending[:budget] {
		w.dirtyMu.Lock()
		delete(w.dirtyMesh, coord)
		w.dirtyMu.Unlock()
		w.rebuildChunk(coord)
	}
	return len(pending) - budget
}

// rebuildChunk relights if needed and rebuilds the mesh for one chunk. The
// chunk lock is held across the block-data reads so a concurrent mutation
// cannot tear the rebuild; a mutation arriving after simply re-queues it.
func (w *World) rebuildChunk(coord world.ChunkCoord) {
	c, ok := w.Chunk(coord)
	if !ok {
		return
	}
	lock := w.chunkLock(coord)
	lock.Lock()
	if !c.Resident() {
		lock.Unlock()
		return
	}
	if c.Data.NeedsLighting {
		w.light.Relight(c.Data)
	}
	mesh, err := w.pool.Build(context.Background(), c.Data, w.lodFor(coord))
	if err != nil {
		lock.Unlock()
		log.Printf("engine: rebuild mesh (%d,%d): %v", coord.X, coord.Z, err)
		w.markDirtyMesh(coord)
		return
	}
	c.Mesh = mesh
	lock.Unlock()
}
