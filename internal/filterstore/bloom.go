package filterstore

import (
	"bytes"

	"github.com/bits-and-blooms/bitset"
	"github.com/zeebo/xxh3"
)

// DefaultNumBits and DefaultNumHashes size a filter for ~3,200 items per
// region at a 1% false-positive rate (§4.2's region-sizing rationale),
// landing at roughly 3.75KB per region document — comfortably inside the
// ~4KB-per-document budget.
const (
	DefaultNumBits   = 30720
	DefaultNumHashes = 7
)

// bloomFilter is a set-membership filter with possible false positives and
// no false negatives. It is immutable from the caller's perspective —
// Inserted returns a new filter with the element added, so a caller can hold
// the pre-insert bytes for a CAS write.
type bloomFilter struct {
	bits      *bitset.BitSet
	numHashes uint32
}

func newBloomFilter(numBits, numHashes uint32) *bloomFilter {
	return &bloomFilter{
		bits:      bitset.New(uint(numBits)),
		numHashes: numHashes,
	}
}

func bloomFilterFromBytes(raw []byte, numBits, numHashes uint32) *bloomFilter {
	bs := bitset.New(uint(numBits))
	if len(raw) > 0 {
		if _, err := bs.ReadFrom(bytes.NewReader(raw)); err != nil {
			bs = bitset.New(uint(numBits))
		}
	}
	return &bloomFilter{bits: bs, numHashes: numHashes}
}

// indices computes the numHashes bit positions an element maps to, using
// Kirsch-Mitzenmacher double hashing over the two 64-bit halves of a single
// 128-bit xxh3 hash: position_i = (h1 + i*h2) mod numBits.
func (f *bloomFilter) indices(key [16]byte) []uint {
	h := xxh3.Hash128(key[:])
	numBits := uint64(f.bits.Len())
	idx := make([]uint, f.numHashes)
	for i := uint32(0); i < f.numHashes; i++ {
		idx[i] = uint((h.Lo + uint64(i)*h.Hi) % numBits)
	}
	return idx
}

// MightContain reports whether key has possibly been inserted before. A
// false positive is possible; a false negative is not.
func (f *bloomFilter) MightContain(key [16]byte) bool {
	for _, i := range f.indices(key) {
		if !f.bits.Test(i) {
			return false
		}
	}
	return true
}

// Inserted returns a new filter with key's bits set, leaving f unmodified.
func (f *bloomFilter) Inserted(key [16]byte) *bloomFilter {
	next := &bloomFilter{bits: f.bits.Clone(), numHashes: f.numHashes}
	for _, i := range f.indices(key) {
		next.bits.Set(i)
	}
	return next
}

// Bytes serializes the filter's bit array for storage in a region document.
func (f *bloomFilter) Bytes() []byte {
	var buf bytes.Buffer
	f.bits.WriteTo(&buf)
	return buf.Bytes()
}
