// Package physics provides voxel queries against a loaded world: ray casting
// for block picking and ground probing for spawn placement.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxeld/internal/block"
	"voxeld/internal/profiling"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0
)

// BlockSource reads blocks at world coordinates. Reads of unloaded chunks
// return an error; the raycast treats those cells as empty and marches on.
type BlockSource interface {
	GetBlock(wx, wy, wz int) (block.Type, error)
}

// RaycastResult stores the result of a raycast operation.
type RaycastResult struct {
	// HitPosition is the cell of the first non-air block on the ray.
	HitPosition [3]int
	// AdjacentPosition is the last empty cell before the hit, which is where
	// a placed block would go.
	AdjacentPosition [3]int
	Distance         float32
	Hit              bool
}

// Raycast marches a ray from start along direction and reports the first
// non-air block between minDist and maxDist. Blocks occupy the unit cell
// [x,x+1)×[y,y+1)×[z,z+1).
func Raycast(start, direction mgl32.Vec3, minDist, maxDist float32, src BlockSource) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	stepSize := float32(0.02)
	steps := int(maxDist / stepSize)

	var lastEmptyPos [3]int
	result := RaycastResult{Hit: false}

	for i := 0; i <= steps; i++ {
		dist := float32(i) * stepSize
		if dist < minDist {
			continue
		}

		pos := start.Add(direction.Mul(dist))
		cell := [3]int{
			int(math.Floor(float64(pos.X()))),
			int(math.Floor(float64(pos.Y()))),
			int(math.Floor(float64(pos.Z()))),
		}

		t, err := src.GetBlock(cell[0], cell[1], cell[2])
		if err == nil && t != block.Air {
			result.HitPosition = cell
			result.AdjacentPosition = lastEmptyPos
			result.Distance = dist
			result.Hit = true
			return result
		}

		lastEmptyPos = cell
	}

	return result
}
