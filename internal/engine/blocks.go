package engine

import (
	"voxeld/internal/block"
	"voxeld/internal/world"
)

// BlockChange describes one applied block mutation, in world coordinates.
type BlockChange struct {
	Coord world.ChunkCoord `json:"chunk"`
	X     int              `json:"x"`
	Y     int              `json:"y"`
	Z     int              `json:"z"`
	Old   block.Type       `json:"old"`
	New   block.Type       `json:"new"`
}

// UpdateBlock applies a single block mutation at world coordinates.
// Mutations within one chunk are serialized; equal-value writes are no-ops
// and publish nothing.
func (w *World) UpdateBlock(wx, wy, wz int, t block.Type) error {
	coord := world.ChunkCoordAt(wx, wz)
	local := world.LocalAt(wx, wy, wz)
	if !local.Valid() {
		return ErrChunkNotLoaded
	}

	c, ok := w.Chunk(coord)
	if !ok {
		return ErrChunkNotLoaded
	}

	lock := w.chunkLock(coord)
	lock.Lock()
	if !c.Resident() {
		// Evicted between the lookup and the lock; the write-back has
		// already run, so the mutation must not land on the orphaned data.
		lock.Unlock()
		return ErrChunkNotLoaded
	}
	old := c.Data.BlockAt(local.X, local.Y, local.Z)
	if old == t {
		lock.Unlock()
		return nil
	}
	c.Data.SetBlockAt(local.X, local.Y, local.Z, t)
	c.Data.Dirty = true
	c.Data.NeedsLighting = true
	w.refreshHeight(c.Data, local)
	if c.Mesh != nil {
		c.Mesh.NeedsRebuild = true
	}
	lock.Unlock()

	w.markDirtyMesh(coord)
	for _, n := range boundaryNeighbors(coord, local) {
		w.touchNeighbor(n)
	}

	w.events.publish(BlockChange{Coord: coord, X: wx, Y: wy, Z: wz, Old: old, New: t})
	return nil
}

// refreshHeight keeps the column height cache consistent with the mutation.
func (w *World) refreshHeight(d *world.ChunkData, p world.LocalPos) {
	ci := world.ColumnIndex(p.X, p.Z)
	h := int(d.HeightMap[ci])
	if t := d.BlockAt(p.X, p.Y, p.Z); t != block.Air {
		if p.Y > h {
			d.HeightMap[ci] = uint8(p.Y)
		}
		return
	}
	if p.Y != h {
		return
	}
	// Surface removed: scan down for the new top.
	for y := p.Y; y >= 0; y-- {
		if d.BlockAt(p.X, y, p.Z) != block.Air {
			d.HeightMap[ci] = uint8(y)
			return
		}
	}
	d.HeightMap[ci] = 0
}

// boundaryNeighbors returns the chunks that share a face with the mutated
// block. Only edge columns have any; a corner column has two.
func boundaryNeighbors(coord world.ChunkCoord, p world.LocalPos) []world.ChunkCoord {
	var out []world.ChunkCoord
	if p.X == 0 {
		out = append(out, world.ChunkCoord{X: coord.X - 1, Z: coord.Z})
	}
	if p.X == world.SizeX-1 {
		out = append(out, world.ChunkCoord{X: coord.X + 1, Z: coord.Z})
	}
	if p.Z == 0 {
		out = append(out, world.ChunkCoord{X: coord.X, Z: coord.Z - 1})
	}
	if p.Z == world.SizeZ-1 {
		out = append(out, world.ChunkCoord{X: coord.X, Z: coord.Z + 1})
	}
	return out
}

// touchNeighbor flags a resident neighbor for relight and remesh. A
// non-resident neighbor needs nothing: it rebuilds from scratch on load.
func (w *World) touchNeighbor(coord world.ChunkCoord) {
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
	c.Data.NeedsLighting = true
	if c.Mesh != nil {
		c.Mesh.NeedsRebuild = true
	}
	lock.Unlock()
	w.markDirtyMesh(coord)
}

func (w *World) markDirtyMesh(coord world.ChunkCoord) {
	w.dirtyMu.Lock()
	w.dirtyMesh[coord] = struct{}{}
	w.dirtyMu.Unlock()
}

// GetBlock reads a block at world coordinates from the resident set.
func (w *World) GetBlock(wx, wy, wz int) (block.Type, error) {
	local := world.LocalAt(wx, wy, wz)
	if !local.Valid() {
		return block.Air, ErrChunkNotLoaded
	}
	c, ok := w.Chunk(world.ChunkCoordAt(wx, wz))
	if !ok {
		return block.Air, ErrChunkNotLoaded
	}
	lock := w.chunkLock(c.Coord)
	lock.Lock()
	defer lock.Unlock()
	if !c.Resident() {
		return block.Air, ErrChunkNotLoaded
	}
	return c.Data.BlockAt(local.X, local.Y, local.Z), nil
}

// Meshes snapshots the current renderable meshes of all resident chunks.
func (w *World) Meshes() []*world.ChunkMesh {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*world.ChunkMesh, 0, len(w.chunks))
	for _, c := range w.chunks {
		lock := w.chunkLock(c.Coord)
		lock.Lock()
		if c.Resident() && c.Mesh != nil {
			out = append(out, c.Mesh)
		}
		lock.Unlock()
	}
	return out
}
