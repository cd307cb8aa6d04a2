package world

import (
	"fmt"
	"sync/atomic"
	"time"
)

// GenState tracks how far procedural generation has progressed for a chunk.
// Transitions are forward-only.
type GenState int

const (
	GenUngenerated GenState = iota
	GenGenerating
	GenGenerated
	GenDecorating
	GenDecorated
	GenLighting
	GenReady
)

func (s GenState) String() string {
	switch s {
	case GenUngenerated:
		return "ungenerated"
	case GenGenerating:
		return "generating"
	case GenGenerated:
		return "generated"
	case GenDecorating:
		return "decorating"
	case GenDecorated:
		return "decorated"
	case GenLighting:
		return "lighting"
	case GenReady:
		return "ready"
	default:
		return "invalid"
	}
}

// LoadState tracks chunk residency. Unlike GenState it is cyclic: a chunk
// can go through any number of load/unload episodes.
type LoadState int

const (
	LoadUnloaded LoadState = iota
	LoadLoading
	LoadLoaded
	LoadActive
	LoadUnloading
)

func (s LoadState) String() string {
	switch s {
	case LoadUnloaded:
		return "unloaded"
	case LoadLoading:
		return "loading"
	case LoadLoaded:
		return "loaded"
	case LoadActive:
		return "active"
	case LoadUnloading:
		return "unloading"
	default:
		return "invalid"
	}
}

var loadTransitions = map[LoadState][]LoadState{
	LoadUnloaded:  {LoadLoading},
	LoadLoading:   {LoadLoaded, LoadUnloaded},
	LoadLoaded:    {LoadActive, LoadUnloading},
	LoadActive:    {LoadLoaded, LoadUnloading},
	LoadUnloading: {LoadUnloaded},
}

// ChunkUnloadError reports an invalid residency state transition.
type ChunkUnloadError struct {
	Coord ChunkCoord
	From  LoadState
	To    LoadState
}

func (e *ChunkUnloadError) Error() string {
	return fmt.Sprintf("chunk (%d,%d): invalid load transition %s -> %s", e.Coord.X, e.Coord.Z, e.From, e.To)
}

// Chunk is a resident cache entry: block data plus derived mesh and the
// bookkeeping the loading manager needs. Neighbor chunks are referenced by
// coordinate only and resolved through the cache.
type Chunk struct {
	Coord ChunkCoord
	Data  *ChunkData
	Mesh  *ChunkMesh

	genState  GenState
	loadState LoadState

	Priority       int
	FootprintBytes int
	LoadedAt       int64
	LastAccess     int64
}

func NewChunk(coord ChunkCoord) *Chunk {
	return &Chunk{Coord: coord}
}

func (c *Chunk) GenState() GenState   { return c.genState }
func (c *Chunk) LoadState() LoadState { return c.loadState }

// AdvanceGen moves the generation state forward. Skipping ahead is allowed
// (a chunk loaded from disk jumps straight to its persisted stage); moving
// backward is not.
func (c *Chunk) AdvanceGen(next GenState) error {
	if next < c.genState {
		return fmt.Errorf("chunk (%d,%d): generation state cannot regress %s -> %s",
			c.Coord.X, c.Coord.Z, c.genState, next)
	}
	c.genState = next
	return nil
}

// SetLoadState applies a residency transition, rejecting anything the state
// machine does not allow.
func (c *Chunk) SetLoadState(next LoadState) error {
	for _, allowed := range loadTransitions[c.loadState] {
		if next == allowed {
			c.loadState = next
			if next == LoadLoaded && c.LoadedAt == 0 {
				c.LoadedAt = time.Now().UnixNano()
			}
			return nil
		}
	}
	return &ChunkUnloadError{Coord: c.Coord, From: c.loadState, To: next}
}

// Resident reports whether the chunk currently holds usable data.
func (c *Chunk) Resident() bool {
	return c.loadState == LoadLoaded || c.loadState == LoadActive
}

// accessClock is a process-wide logical clock for recency ordering.
// A logical counter avoids LRU ties that wall-clock timestamps can produce
// under coarse timer resolution.
var accessClock atomic.Int64

// Touch bumps the recency clock. Any access rescues a chunk that was about
// to be evicted.
func (c *Chunk) Touch() {
	c.LastAccess = accessClock.Add(1)
}
