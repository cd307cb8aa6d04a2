package storage

import (
	"errors"
	"fmt"

	"voxeld/internal/world"
)

// ErrNotFound is returned when no data exists for a key. Callers use it to
// fall back to generation instead of treating the miss as an I/O failure.
var ErrNotFound = errors.New("storage: key not found")

// StorageError wraps an I/O failure with its operation and key.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Backend is raw byte-addressable chunk storage. Implementations must make
// Write atomic: a crashed write may lose the chunk but never corrupt it.
type Backend interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(key string) error
	List() ([]string, error)
	Close() error
}

// regionSize groups chunks into fixed 32×32 regions so the key space (and
// directory fan-out on the file backend) stays bounded.
const regionSize = 32

// ChunkKey maps a chunk coordinate deterministically into its region.
func ChunkKey(coord world.ChunkCoord) string {
	rx := world.FloorDiv(coord.X, regionSize)
	rz := world.FloorDiv(coord.Z, regionSize)
	return fmt.Sprintf("r.%d.%d/c.%d.%d", rx, rz, coord.X, coord.Z)
}
