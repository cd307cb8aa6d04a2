package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voxeld/internal/block"
	"voxeld/internal/config"
	"voxeld/internal/storage"
	"voxeld/internal/world"
)

func testConfig(capacity int) *config.Config {
	cfg := config.Default()
	cfg.World.ViewRadius = 1
	cfg.World.UnloadRadius = 2
	cfg.World.SimRadius = 0
	cfg.Cache.Capacity = capacity
	cfg.Cache.LoadFanout = 2
	cfg.Mesher.Workers = 2
	cfg.Mesher.LODStep = 0
	return cfg
}

func testWorld(t *testing.T, capacity int) *World {
	t.Helper()
	return testWorldWithStore(t, capacity, newFileStore(t))
}

func newFileStore(t *testing.T) storage.Backend {
	t.Helper()
	s, err := storage.OpenFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testWorldWithStore(t *testing.T, capacity int, store storage.Backend) *World {
	t.Helper()
	reg := block.DefaultRegistry()
	w := NewWorld(testConfig(capacity), reg, block.NewGridAtlas(reg, 16), store)
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return w
}

func TestLoadChunkGeneratesAndCaches(t *testing.T) {
	w := testWorld(t, 8)
	coord := world.ChunkCoord{X: 0, Z: 0}

	c, err := w.LoadChunk(context.Background(), coord)
	if err != nil {
		t.Fatal(err)
	}
	if c.Data == nil || c.Mesh == nil {
		t.Fatal("loaded chunk missing data or mesh")
	}
	if c.LoadState() != world.LoadLoaded {
		t.Errorf("state %s after load", c.LoadState())
	}
	if c.GenState() != world.GenReady {
		t.Errorf("generation state %s after load", c.GenState())
	}
	if c.Data.NeedsLighting {
		t.Error("chunk still needs lighting after load")
	}
	if c.Mesh.TriangleCount() == 0 {
		t.Error("terrain chunk meshed to nothing")
	}

	again, err := w.LoadChunk(context.Background(), coord)
	if err != nil {
		t.Fatal(err)
	}
	if again != c {
		t.Error("second load did not hit the cache")
	}
}

func TestLRUEviction(t *testing.T) {
	w := testWorld(t, 2)
	ctx := context.Background()

	a, _ := w.LoadChunk(ctx, world.ChunkCoord{X: 0, Z: 0})
	if _, err := w.LoadChunk(ctx, world.ChunkCoord{X: 1, Z: 0}); err != nil {
		t.Fatal(err)
	}
	a.Touch() // B is now least recently used
	if _, err := w.LoadChunk(ctx, world.ChunkCoord{X: 2, Z: 0}); err != nil {
		t.Fatal(err)
	}

	if w.ResidentCount() != 2 {
		t.Fatalf("%d chunks resident, capacity 2", w.ResidentCount())
	}
	if _, ok := w.Chunk(world.ChunkCoord{X: 1, Z: 0}); ok {
		t.Error("least recently used chunk survived eviction")
	}
	if _, ok := w.Chunk(world.ChunkCoord{X: 0, Z: 0}); !ok {
		t.Error("recently touched chunk was evicted")
	}
}

func TestWriteBeforeEvict(t *testing.T) {
	store := newFileStore(t)
	w := testWorldWithStore(t, 2, store)
	ctx := context.Background()

	coord := world.ChunkCoord{X: 0, Z: 0}
	if _, err := w.LoadChunk(ctx, coord); err != nil {
		t.Fatal(err)
	}
	if err := w.UpdateBlock(8, 200, 8, block.Glowstone); err != nil {
		t.Fatal(err)
	}

	// Push the mutated chunk out of the cache.
	w.LoadChunk(ctx, world.ChunkCoord{X: 5, Z: 5})
	w.LoadChunk(ctx, world.ChunkCoord{X: 6, Z: 6})
	if _, ok := w.Chunk(coord); ok {
		t.Fatal("chunk expected to be evicted")
	}
	if _, err := store.Read(storage.ChunkKey(coord)); err != nil {
		t.Fatalf("evicted dirty chunk was not written back: %v", err)
	}

	// Reload must see the mutation, not regenerated terrain.
	c, err := w.LoadChunk(ctx, coord)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Data.BlockAt(8, 200, 8); got != block.Glowstone {
		t.Errorf("reloaded block is %d, want glowstone", got)
	}
}

// blockingStore wedges the first Read of one key until released so a load
// can be held in flight; reads of other keys pass straight through.
type blockingStore struct {
	storage.Backend
	key     string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) Read(key string) ([]byte, error) {
	if key == s.key {
		s.once.Do(func() {
			close(s.entered)
			<-s.release
		})
	}
	return s.Backend.Read(key)
}

func TestDuplicateLoadInFlight(t *testing.T) {
	coord := world.ChunkCoord{X: 0, Z: 0}
	store := &blockingStore{
		Backend: newFileStore(t),
		key:     storage.ChunkKey(coord),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	w := testWorldWithStore(t, 8, store)

	done := make(chan error, 1)
	go func() {
		_, err := w.LoadChunk(context.Background(), coord)
		done <- err
	}()

	<-store.entered
	if _, err := w.LoadChunk(context.Background(), coord); !errors.Is(err, ErrLoadInFlight) {
		t.Errorf("duplicate load: got %v, want ErrLoadInFlight", err)
	}
	close(store.release)

	if err := <-done; err != nil {
		t.Fatalf("original load failed: %v", err)
	}
	if _, ok := w.Chunk(coord); !ok {
		t.Error("chunk not resident after load resolved")
	}
}

func TestGetAndUpdateBlock(t *testing.T) {
	w := testWorld(t, 8)
	ctx := context.Background()
	if _, err := w.LoadChunk(ctx, world.ChunkCoord{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	if err := w.UpdateBlock(4, 150, 4, block.Glass); err != nil {
		t.Fatal(err)
	}
	got, err := w.GetBlock(4, 150, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != block.Glass {
		t.Errorf("read back %d, want glass", got)
	}

	if err := w.UpdateBlock(100, 64, 100, block.Stone); !errors.Is(err, ErrChunkNotLoaded) {
		t.Errorf("mutation of unloaded chunk: got %v", err)
	}
	if err := w.UpdateBlock(0, -5, 0, block.Stone); !errors.Is(err, ErrChunkNotLoaded) {
		t.Errorf("out-of-range y: got %v", err)
	}
}

func TestConcurrentUpdatesNoLostWrites(t *testing.T) {
	w := testWorld(t, 8)
	ctx := context.Background()
	if _, err := w.LoadChunk(ctx, world.ChunkCoord{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for x := 0; x < world.SizeX; x++ {
		for z := 0; z < world.SizeZ; z++ {
			wg.Add(1)
			go func(x, z int) {
				defer wg.Done()
				if err := w.UpdateBlock(x, 220, z, block.Sandstone); err != nil {
					t.Errorf("update (%d,%d): %v", x, z, err)
				}
			}(x, z)
		}
	}
	wg.Wait()

	for x := 0; x < world.SizeX; x++ {
		for z := 0; z < world.SizeZ; z++ {
			if got, _ := w.GetBlock(x, 220, z); got != block.Sandstone {
				t.Fatalf("block (%d,220,%d) = %d, lost write", x, z, got)
			}
		}
	}
}

func TestBoundaryMutationDirtiesNeighbors(t *testing.T) {
	w := testWorld(t, 16)
	ctx := context.Background()
	coords := []world.ChunkCoord{
		{X: 0, Z: 0}, {X: -1, Z: 0}, {X: 0, Z: -1}, {X: 1, Z: 0}, {X: 0, Z: 1},
	}
	chunks := map[world.ChunkCoord]*world.Chunk{}
	for _, c := range coords {
		ch, err := w.LoadChunk(ctx, c)
		if err != nil {
			t.Fatal(err)
		}
		chunks[c] = ch
	}

	// Corner column (0,0) of chunk (0,0) touches the -X and -Z neighbors only.
	if err := w.UpdateBlock(0, 64, 0, block.Glass); err != nil {
		t.Fatal(err)
	}

	if !chunks[world.ChunkCoord{X: 0, Z: 0}].Mesh.NeedsRebuild {
		t.Error("mutated chunk not flagged for rebuild")
	}
	if !chunks[world.ChunkCoord{X: -1, Z: 0}].Mesh.NeedsRebuild {
		t.Error("-X neighbor not flagged")
	}
	if !chunks[world.ChunkCoord{X: 0, Z: -1}].Mesh.NeedsRebuild {
		t.Error("-Z neighbor not flagged")
	}
	if chunks[world.ChunkCoord{X: 1, Z: 0}].Mesh.NeedsRebuild {
		t.Error("+X neighbor flagged for an edge it does not share")
	}
	if chunks[world.ChunkCoord{X: 0, Z: 1}].Mesh.NeedsRebuild {
		t.Error("+Z neighbor flagged for an edge it does not share")
	}

	// Interior mutation touches nobody else.
	if err := w.UpdateBlock(8, 64, 8, block.Glass); err != nil {
		t.Fatal(err)
	}
	if chunks[world.ChunkCoord{X: 1, Z: 0}].Mesh.NeedsRebuild ||
		chunks[world.ChunkCoord{X: 0, Z: 1}].Mesh.NeedsRebuild {
		t.Error("interior mutation flagged neighbors")
	}
}

func TestEqualValueWriteIsNoOp(t *testing.T) {
	w := testWorld(t, 8)
	ctx := context.Background()
	if _, err := w.LoadChunk(ctx, world.ChunkCoord{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	events, cancel := w.Subscribe(8)
	defer cancel()

	cur, err := w.GetBlock(3, 64, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.UpdateBlock(3, 64, 3, cur); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		t.Errorf("no-op write published %+v", ev)
	default:
	}
}

func TestBlockChangeEvents(t *testing.T) {
	w := testWorld(t, 8)
	ctx := context.Background()
	if _, err := w.LoadChunk(ctx, world.ChunkCoord{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	events, cancel := w.Subscribe(8)
	defer cancel()

	old, _ := w.GetBlock(2, 90, 2)
	if err := w.UpdateBlock(2, 90, 2, block.Glowstone); err != nil {
		t.Fatal(err)
	}

	ev := <-events
	if ev.X != 2 || ev.Y != 90 || ev.Z != 2 {
		t.Errorf("event at (%d,%d,%d)", ev.X, ev.Y, ev.Z)
	}
	if ev.Old != old || ev.New != block.Glowstone {
		t.Errorf("event %d -> %d, want %d -> %d", ev.Old, ev.New, old, block.Glowstone)
	}
	if ev.Coord != (world.ChunkCoord{X: 0, Z: 0}) {
		t.Errorf("event chunk %v", ev.Coord)
	}
}

func TestEvictionWaitsForMutationLock(t *testing.T) {
	w := testWorld(t, 8)
	coord := world.ChunkCoord{X: 0, Z: 0}
	c, err := w.LoadChunk(context.Background(), coord)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.UpdateBlock(8, 200, 8, block.Glowstone); err != nil {
		t.Fatal(err)
	}

	// Hold the chunk's mutation lock like an in-progress UpdateBlock.
	// Eviction must not write back and drop the chunk underneath it.
	lock := w.chunkLock(coord)
	lock.Lock()
	evicted := make(chan error, 1)
	go func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		evicted <- w.unloadLocked(c)
	}()

	select {
	case <-evicted:
		t.Fatal("eviction proceeded while the mutation lock was held")
	case <-time.After(50 * time.Millisecond):
	}
	lock.Unlock()

	if err := <-evicted; err != nil {
		t.Fatal(err)
	}
	if _, ok := w.Chunk(coord); ok {
		t.Error("chunk still resident after unload")
	}
	// A mutator that looked the chunk up before eviction and only now wins
	// the lock must see it gone instead of writing to orphaned data.
	lock.Lock()
	if c.Resident() {
		t.Error("stale chunk pointer still reports resident")
	}
	lock.Unlock()

	re, err := w.LoadChunk(context.Background(), coord)
	if err != nil {
		t.Fatal(err)
	}
	if got := re.Data.BlockAt(8, 200, 8); got != block.Glowstone {
		t.Errorf("reloaded block %d, want glowstone", got)
	}
}

func TestConcurrentFlushDuringUpdates(t *testing.T) {
	w := testWorld(t, 8)
	ctx := context.Background()
	if _, err := w.LoadChunk(ctx, world.ChunkCoord{X: 0, Z: 0}); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		for {
			select {
			case <-stop:
				return
			default:
				if err := w.FlushAll(); err != nil {
					t.Errorf("flush: %v", err)
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for x := 0; x < world.SizeX; x++ {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			for z := 0; z < world.SizeZ; z++ {
				if err := w.UpdateBlock(x, 210, z, block.Glass); err != nil {
					t.Errorf("update (%d,%d): %v", x, z, err)
				}
			}
		}(x)
	}
	wg.Wait()
	close(stop)
	<-flushed

	for x := 0; x < world.SizeX; x++ {
		for z := 0; z < world.SizeZ; z++ {
			if got, _ := w.GetBlock(x, 210, z); got != block.Glass {
				t.Fatalf("block (%d,210,%d) = %d after concurrent flush", x, z, got)
			}
		}
	}
}

func TestFlushAllClearsDirty(t *testing.T) {
	store := newFileStore(t)
	w := testWorldWithStore(t, 8, store)
	ctx := context.Background()

	coord := world.ChunkCoord{X: 0, Z: 0}
	c, err := w.LoadChunk(ctx, coord)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.FlushAll(); err != nil {
		t.Fatal(err)
	}
	if c.Data.Dirty {
		t.Error("chunk still dirty after flush")
	}
	if _, err := store.Read(storage.ChunkKey(coord)); err != nil {
		t.Errorf("flushed chunk missing from storage: %v", err)
	}
}
