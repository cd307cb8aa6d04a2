package meshing

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxeld/internal/block"
	"voxeld/internal/world"
)

// MeshGenerationError reports malformed mesher input.
type MeshGenerationError struct {
	Coord  world.ChunkCoord
	Reason string
}

func (e *MeshGenerationError) Error() string {
	return fmt.Sprintf("mesh chunk (%d,%d): %s", e.Coord.X, e.Coord.Z, e.Reason)
}

// sweep describes one of the six face directions: the swept axis, the sign
// of the outward normal, and the two in-plane axes. Width merges along v,
// height along u.
type sweep struct {
	axis, sign int
	u, v       int
	face       block.Face
	normal     mgl32.Vec3
}

var sweeps = [6]sweep{
	{axis: 0, sign: +1, u: 1, v: 2, face: block.FaceEast, normal: mgl32.Vec3{1, 0, 0}},
	{axis: 0, sign: -1, u: 1, v: 2, face: block.FaceWest, normal: mgl32.Vec3{-1, 0, 0}},
	{axis: 1, sign: +1, u: 0, v: 2, face: block.FaceTop, normal: mgl32.Vec3{0, 1, 0}},
	{axis: 1, sign: -1, u: 0, v: 2, face: block.FaceBottom, normal: mgl32.Vec3{0, -1, 0}},
	{axis: 2, sign: +1, u: 0, v: 1, face: block.FaceNorth, normal: mgl32.Vec3{0, 0, 1}},
	{axis: 2, sign: -1, u: 0, v: 1, face: block.FaceSouth, normal: mgl32.Vec3{0, 0, -1}},
}

// GenerateMesh converts chunk block data into greedy-merged geometry,
// partitioned into opaque, transparent and water buckets. It is
// deterministic and idempotent: unchanged data meshes to the identical quad
// set.
func GenerateMesh(d *world.ChunkData, reg *block.Registry, atlas block.AtlasLookup) (*world.ChunkMesh, error) {
	return GenerateLODMesh(d, reg, atlas, 0)
}

// GenerateLODMesh decimates the block grid by 2^lod with nearest-neighbor
// sampling, then runs the same meshing algorithm. Emitted positions are in
// block units, so LOD meshes overlay the full-resolution geometry.
func GenerateLODMesh(d *world.ChunkData, reg *block.Registry, atlas block.AtlasLookup, lod int) (*world.ChunkMesh, error) {
	if len(d.Blocks) != world.Volume {
		return nil, &MeshGenerationError{Coord: d.Coord, Reason: fmt.Sprintf("block array length %d, want %d", len(d.Blocks), world.Volume)}
	}
	if lod < 0 || lod > 4 {
		return nil, &MeshGenerationError{Coord: d.Coord, Reason: fmt.Sprintf("lod %d outside [0,4]", lod)}
	}

	g := newGrid(d, lod)
	m := &world.ChunkMesh{Coord: d.Coord, LOD: lod}

	for _, sw := range sweeps {
		meshSweep(m, g, reg, atlas, sw)
	}

	m.LastRebuild = time.Now().Unix()
	return m, nil
}

// faceVisible implements the visibility rule: a block's face shows when the
// neighbor does not fully occlude it and sits in a different transparency
// class (air, opaque, transparent, liquid). Same-class neighbors hide each
// other even across block types.
func faceVisible(reg *block.Registry, t, neighbor block.Type) bool {
	if t == block.Air {
		return false
	}
	if reg.IsOpaque(neighbor) {
		return false
	}
	return transparencyClass(reg, t) != transparencyClass(reg, neighbor)
}

func transparencyClass(reg *block.Registry, t block.Type) int {
	switch {
	case t == block.Air:
		return 0
	case reg.IsLiquid(t):
		return 3
	case reg.IsTransparent(t):
		return 2
	default:
		return 1
	}
}

func meshSweep(m *world.ChunkMesh, g *grid, reg *block.Registry, atlas block.AtlasLookup, sw sweep) {
	dims := [3]int{g.sx, g.sy, g.sz}
	su := dims[sw.u]
	sv := dims[sw.v]
	mask := make([]block.Type, su*sv)

	for slice := 0; slice < dims[sw.axis]; slice++ {
		// Build the face mask for this slice. Cells outside the chunk are
		// air, so a fully solid chunk still grows boundary faces.
		populated := 0
		for ui := 0; ui < su; ui++ {
			for vi := 0; vi < sv; vi++ {
				var cell [3]int
				cell[sw.axis] = slice
				cell[sw.u] = ui
				cell[sw.v] = vi

				t := g.at(cell[0], cell[1], cell[2])
				mi := ui*sv + vi
				mask[mi] = block.Air
				if t == block.Air {
					continue
				}

				cell[sw.axis] += sw.sign
				neighbor := g.at(cell[0], cell[1], cell[2])
				if faceVisible(reg, t, neighbor) {
					mask[mi] = t
					populated++
				}
			}
		}
		if populated == 0 {
			continue
		}

		// Merge the mask into maximal rectangles: extend width while the
		// face descriptor matches along the row, then extend height while
		// every cell of the width-run matches.
		for i := 0; i < su*sv; {
			t := mask[i]
			if t == block.Air {
				i++
				continue
			}
			u0 := i / sv
			v0 := i % sv

			w := 1
			for v0+w < sv && mask[u0*sv+v0+w] == t {
				w++
			}
			h := 1
		grow:
			for u0+h < su {
				for vv := v0; vv < v0+w; vv++ {
					if mask[(u0+h)*sv+vv] != t {
						break grow
					}
				}
				h++
			}

			emitQuad(m, reg, atlas, g.step, sw, slice, u0, v0, w, h, t)

			for uu := u0; uu < u0+h; uu++ {
				for vv := v0; vv < v0+w; vv++ {
					mask[uu*sv+vv] = block.Air
				}
			}
		}
	}
}

// emitQuad appends one merged rectangle (4 vertices, 2 triangles) to the
// bucket the block's transparency class selects.
func emitQuad(m *world.ChunkMesh, reg *block.Registry, atlas block.AtlasLookup, step int, sw sweep, slice, u0, v0, w, h int, t block.Type) {
	def := reg.Get(t)

	buf := &m.Opaque
	switch {
	case def.Liquid:
		buf = &m.Water
	case def.Transparent:
		buf = &m.Transparent
	}

	plane := slice
	if sw.sign > 0 {
		plane++
	}

	corner := func(uu, vv int) [3]float32 {
		var c [3]float32
		c[sw.axis] = float32(plane * step)
		c[sw.u] = float32(uu * step)
		c[sw.v] = float32(vv * step)
		return c
	}
	p00 := corner(u0, v0)
	p0w := corner(u0, v0+w)
	phw := corner(u0+h, v0+w)
	ph0 := corner(u0+h, v0)

	uv := atlas.UVRect(t, sw.face, w, h)
	uv00 := [2]float32{uv.Min.X(), uv.Min.Y()}
	uv0w := [2]float32{uv.Max.X(), uv.Min.Y()}
	uvhw := [2]float32{uv.Max.X(), uv.Max.Y()}
	uvh0 := [2]float32{uv.Min.X(), uv.Max.Y()}

	// Winding follows the per-direction orders that keep the front face
	// outward for each normal.
	var pos [4][3]float32
	var uvs [4][2]float32
	if (sw.sign > 0) == (sw.axis != 1) {
		pos = [4][3]float32{p00, p0w, phw, ph0}
		uvs = [4][2]float32{uv00, uv0w, uvhw, uvh0}
	} else {
		pos = [4][3]float32{p00, ph0, phw, p0w}
		uvs = [4][2]float32{uv00, uvh0, uvhw, uv0w}
	}

	base := uint32(buf.VertexCount())
	for i := 0; i < 4; i++ {
		buf.Vertices = append(buf.Vertices, pos[i][0], pos[i][1], pos[i][2])
		buf.Normals = append(buf.Normals, sw.normal.X(), sw.normal.Y(), sw.normal.Z())
		buf.UVs = append(buf.UVs, uvs[i][0], uvs[i][1])
		buf.Colors = append(buf.Colors, def.Tint.X(), def.Tint.Y(), def.Tint.Z())
	}
	buf.Indices = append(buf.Indices, base, base+1, base+2, base+2, base+3, base)
}
