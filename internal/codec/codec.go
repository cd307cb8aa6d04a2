// Package codec implements the versioned binary chunk format.
//
// Layout (big-endian):
//
//	magic "VXCK" | uint16 version        (uncompressed)
//	zstd-compressed body:
//	  int32 chunkX | int32 chunkZ
//	  uint32 runCount | runCount × (uint16 blockType, uint32 runLength)
//	  256 B height map | 256 B biome map
//	  3 × 32768 B packed 4-bit light planes (combined, block, sky)
//	  int64 lastModified | uint8 flags (dirty, needsLighting, needsDecoration)
//	  uint32 entityCount | entityCount × uint64
//	  uint32 tileCount | tileCount × (uint16 packedPos, uint64 entityID)
//
// The format is a stable artifact: readers reject any other version rather
// than guess at the layout.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"

	"voxeld/internal/block"
	"voxeld/internal/world"
)

const Version uint16 = 1

var magic = [4]byte{'V', 'X', 'C', 'K'}

// ErrCorrupt marks payloads that carry the right version but fail structural
// validation. The loading manager degrades these to regeneration.
var ErrCorrupt = errors.New("codec: corrupt chunk payload")

// VersionMismatchError reports persisted-format drift. It is fatal for the
// file: the codec never migrates silently.
type VersionMismatchError struct {
	Got  uint16
	Want uint16
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("codec: chunk format version %d, reader supports %d", e.Got, e.Want)
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

const (
	flagDirty = 1 << iota
	flagNeedsLighting
	flagNeedsDecoration
)

// Serialize encodes chunk data into the versioned binary format.
func Serialize(d *world.ChunkData) ([]byte, error) {
	if len(d.Blocks) != world.Volume {
		return nil, fmt.Errorf("%w: block array length %d", ErrCorrupt, len(d.Blocks))
	}

	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, int32(d.Coord.X))
	binary.Write(&body, binary.BigEndian, int32(d.Coord.Z))

	writeRuns(&body, d.Blocks)

	body.Write(d.HeightMap[:])
	body.Write(d.BiomeMap[:])
	body.Write(d.Light)
	body.Write(d.BlockLight)
	body.Write(d.SkyLight)

	binary.Write(&body, binary.BigEndian, d.LastModified)
	var flags uint8
	if d.Dirty {
		flags |= flagDirty
	}
	if d.NeedsLighting {
		flags |= flagNeedsLighting
	}
	if d.NeedsDecoration {
		flags |= flagNeedsDecoration
	}
	body.WriteByte(flags)

	binary.Write(&body, binary.BigEndian, uint32(len(d.Entities)))
	for _, id := range d.Entities {
		binary.Write(&body, binary.BigEndian, id)
	}

	binary.Write(&body, binary.BigEndian, uint32(len(d.TileEntities)))
	tileKeys := make([]uint16, 0, len(d.TileEntities))
	for k := range d.TileEntities {
		tileKeys = append(tileKeys, k)
	}
	sort.Slice(tileKeys, func(i, j int) bool { return tileKeys[i] < tileKeys[j] })
	for _, k := range tileKeys {
		binary.Write(&body, binary.BigEndian, k)
		binary.Write(&body, binary.BigEndian, d.TileEntities[k])
	}

	out := make([]byte, 0, 6+body.Len()/4)
	out = append(out, magic[:]...)
	out = binary.BigEndian.AppendUint16(out, Version)
	return zstdEncoder.EncodeAll(body.Bytes(), out), nil
}

// writeRuns run-length-encodes the block array as (type, count) pairs.
func writeRuns(w *bytes.Buffer, blocks []block.Type) {
	var runs uint32
	var lengths bytes.Buffer

	cur := blocks[0]
	count := uint32(0)
	flush := func() {
		binary.Write(&lengths, binary.BigEndian, uint16(cur))
		binary.Write(&lengths, binary.BigEndian, count)
		runs++
	}
	for _, b := range blocks {
		if b == cur {
			count++
			continue
		}
		flush()
		cur = b
		count = 1
	}
	flush()

	binary.Write(w, binary.BigEndian, runs)
	w.Write(lengths.Bytes())
}

// Deserialize reconstructs chunk data, returning VersionMismatchError for
// foreign versions and ErrCorrupt for structurally invalid payloads.
// Deserialize(Serialize(d)) reproduces d exactly.
func Deserialize(data []byte) (*world.ChunkData, error) {
	if len(data) < 6 || !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.BigEndian.Uint16(data[4:6]); v != Version {
		return nil, &VersionMismatchError{Got: v, Want: Version}
	}

	body, err := zstdDecoder.DecodeAll(data[6:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	r := bytes.NewReader(body)

	var cx, cz int32
	if err := binary.Read(r, binary.BigEndian, &cx); err != nil {
		return nil, fmt.Errorf("%w: coordinate: %v", ErrCorrupt, err)
	}
	if err := binary.Read(r, binary.BigEndian, &cz); err != nil {
		return nil, fmt.Errorf("%w: coordinate: %v", ErrCorrupt, err)
	}

	d := world.NewChunkData(world.ChunkCoord{X: int(cx), Z: int(cz)})

	if err := readRuns(r, d.Blocks); err != nil {
		return nil, err
	}

	for _, dst := range [][]byte{d.HeightMap[:], d.BiomeMap[:], d.Light, d.BlockLight, d.SkyLight} {
		if _, err := io.ReadFull(r, dst); err != nil {
			return nil, fmt.Errorf("%w: maps: %v", ErrCorrupt, err)
		}
	}

	if err := binary.Read(r, binary.BigEndian, &d.LastModified); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}
	d.Dirty = flags&flagDirty != 0
	d.NeedsLighting = flags&flagNeedsLighting != 0
	d.NeedsDecoration = flags&flagNeedsDecoration != 0

	var entityCount uint32
	if err := binary.Read(r, binary.BigEndian, &entityCount); err != nil {
		return nil, fmt.Errorf("%w: entities: %v", ErrCorrupt, err)
	}
	if entityCount > 0 {
		d.Entities = make([]uint64, entityCount)
		for i := range d.Entities {
			if err := binary.Read(r, binary.BigEndian, &d.Entities[i]); err != nil {
				return nil, fmt.Errorf("%w: entities: %v", ErrCorrupt, err)
			}
		}
	}

	var tileCount uint32
	if err := binary.Read(r, binary.BigEndian, &tileCount); err != nil {
		return nil, fmt.Errorf("%w: tile entities: %v", ErrCorrupt, err)
	}
	if tileCount > 0 {
		d.TileEntities = make(map[uint16]uint64, tileCount)
		for i := uint32(0); i < tileCount; i++ {
			var pos uint16
			var id uint64
			if err := binary.Read(r, binary.BigEndian, &pos); err != nil {
				return nil, fmt.Errorf("%w: tile entities: %v", ErrCorrupt, err)
			}
			if err := binary.Read(r, binary.BigEndian, &id); err != nil {
				return nil, fmt.Errorf("%w: tile entities: %v", ErrCorrupt, err)
			}
			d.TileEntities[pos] = id
		}
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Len())
	}
	return d, nil
}

func readRuns(r *bytes.Reader, blocks []block.Type) error {
	var runs uint32
	if err := binary.Read(r, binary.BigEndian, &runs); err != nil {
		return fmt.Errorf("%w: runs: %v", ErrCorrupt, err)
	}
	pos := 0
	for i := uint32(0); i < runs; i++ {
		var t uint16
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &t); err != nil {
			return fmt.Errorf("%w: runs: %v", ErrCorrupt, err)
		}
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return fmt.Errorf("%w: runs: %v", ErrCorrupt, err)
		}
		if count == 0 || pos+int(count) > len(blocks) {
			return fmt.Errorf("%w: run %d overflows block array", ErrCorrupt, i)
		}
		for j := 0; j < int(count); j++ {
			blocks[pos+j] = block.Type(t)
		}
		pos += int(count)
	}
	if pos != len(blocks) {
		return fmt.Errorf("%w: runs cover %d of %d blocks", ErrCorrupt, pos, len(blocks))
	}
	return nil
}
