package world

// MeshBuffer holds the geometry of one render bucket. Vertices, Normals and
// Colors are xyz triples, UVs are uv pairs, Indices address vertices.
type MeshBuffer struct {
	Vertices []float32
	Normals  []float32
	UVs      []float32
	Colors   []float32
	Indices  []uint32
}

// VertexCount is always len(Vertices)/3.
func (b *MeshBuffer) VertexCount() int { return len(b.Vertices) / 3 }

// TriangleCount is always len(Indices)/3.
func (b *MeshBuffer) TriangleCount() int { return len(b.Indices) / 3 }

// ChunkMesh is geometry derived from a chunk's block data, partitioned into
// three buckets so render passes stay independent. It has no lifecycle of its
// own: the owning chunk rebuilds it whenever the dirty or lighting flags
// clear.
type ChunkMesh struct {
	Coord ChunkCoord

	Opaque      MeshBuffer
	Transparent MeshBuffer
	Water       MeshBuffer

	// LOD in [0,4]; level n meshes the grid decimated by 2^n.
	LOD int

	NeedsRebuild bool
	LastRebuild  int64
}

func (m *ChunkMesh) VertexCount() int {
	return m.Opaque.VertexCount() + m.Transparent.VertexCount() + m.Water.VertexCount()
}

func (m *ChunkMesh) TriangleCount() int {
	return m.Opaque.TriangleCount() + m.Transparent.TriangleCount() + m.Water.TriangleCount()
}
