package physics

import "voxeld/internal/block"

// FindGroundLevel scans a column downward from startY and returns the y of
// the first cell whose support below is solid, so a 2-block-tall entity
// dropped there comes to rest. Returns startY when the column is unloaded or
// entirely empty.
func FindGroundLevel(src BlockSource, wx, wz, startY int) int {
	for y := startY; y > 0; y-- {
		below, err := src.GetBlock(wx, y-1, wz)
		if err != nil {
			return startY
		}
		if below == block.Air || below == block.Water {
			continue
		}
		here, err := src.GetBlock(wx, y, wz)
		if err != nil || here != block.Air {
			continue
		}
		return y
	}
	return startY
}
