// Package idhash computes the deterministic 128-bit identity hashes the
// ledger and filter store key their rows by. Every function here is a pure
// transform over a fixed-width little-endian byte layout; changing the byte
// order or field order changes every key already on disk.
package idhash

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// RegionSize is the edge length, in world units, of a single consumption
// filter's coverage (§4.2): region (⌊x/64⌋, ⌊y/64⌋, ⌊z/64⌋).
const RegionSize = 64

// XYZAUUID hashes a spatially anchored drop's coordinates and sub-index into
// a 128-bit stack identity. Layout: x(16) ‖ y(16) ‖ z(16) ‖ a(4), all
// little-endian.
func XYZAUUID(x, y, z int64, a uint32) [16]byte {
	return hash128(encodeXYZA(x, y, z, a))
}

// RegionKey hashes the floor-divided region coordinates containing (x,y,z,a)
// into the key of the consumption filter document covering that region.
func RegionKey(x, y, z int64, a uint32) [16]byte {
	rx := floorDiv(x, RegionSize)
	ry := floorDiv(y, RegionSize)
	rz := floorDiv(z, RegionSize)
	return hash128(encodeXYZA(rx, ry, rz, a))
}

// LatestKey hashes an (account, stack) pair into the primary key of that
// pair's row in the `latest` table.
func LatestKey(accountID string, stackUUID [16]byte) [16]byte {
	buf := make([]byte, 0, len(accountID)+16)
	buf = append(buf, accountID...)
	buf = append(buf, stackUUID[:]...)
	return hash128(buf)
}

// CompositeKey hashes (account, stack, sequence_number) into the unique key
// of a single ledger row.
func CompositeKey(accountID string, stackUUID [16]byte, sequenceNumber int32) [16]byte {
	buf := make([]byte, 0, len(accountID)+16+4)
	buf = append(buf, accountID...)
	buf = append(buf, stackUUID[:]...)
	seq := make([]byte, 4)
	binary.LittleEndian.PutUint32(seq, uint32(sequenceNumber))
	buf = append(buf, seq...)
	return hash128(buf)
}

// encodeXYZA serializes coordinates as 16-byte i128 fields. This service's
// world fits in int64, so each 16-byte field is the sign-extension of an
// int64.
func encodeXYZA(x, y, z int64, a uint32) []byte {
	buf := make([]byte, 52)
	signExtend(buf[0:16], x)
	signExtend(buf[16:32], y)
	signExtend(buf[32:48], z)
	binary.LittleEndian.PutUint32(buf[48:52], a)
	return buf
}

func signExtend(dst []byte, v int64) {
	binary.LittleEndian.PutUint64(dst[0:8], uint64(v))
	var hi uint64
	if v < 0 {
		hi = ^uint64(0)
	}
	binary.LittleEndian.PutUint64(dst[8:16], hi)
}

func hash128(b []byte) [16]byte {
	h := xxh3.Hash128(b)
	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], h.Lo)
	binary.LittleEndian.PutUint64(out[8:16], h.Hi)
	return out
}

// floorDiv implements mathematical floor division, required so that negative
// world coordinates map to contiguous regions (§4.1): for negative a with a
// sign change against b, subtract one from the truncated quotient.
func floorDiv(a, b int64) int64 {
	q := a / b
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}
