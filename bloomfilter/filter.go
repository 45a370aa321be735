// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bloomfilter implements the BloomFilter sync strategy's wire
// representation: an FNV-1a filter sized for a target false-positive
// rate, with a fixed hash construction so two independently-built
// implementations interoperate bit-for-bit.
package bloomfilter

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/luxfi/hybridsync/utils/wrappers"
)

// Filter is a Bloom filter over opaque identifier bytes (entity or
// delta ids). The bit array and hash count are fixed at construction;
// Filter never resizes.
type Filter struct {
	bits    []byte
	numBits uint64
	numHash uint32
}

// Size computes (numBits, numHash) for n expected elements at the given
// target false positive rate, using the standard formulas
// m = ceil(-n*ln(p) / ln(2)^2) and k = round((m/n) * ln(2)), with k
// clamped to at least 1.
func Size(n int, targetFPR float64) (numBits uint64, numHash uint32) {
	if n <= 0 {
		n = 1
	}
	if targetFPR <= 0 || targetFPR >= 1 {
		targetFPR = 0.01
	}

	ln2 := math.Ln2
	m := math.Ceil(-float64(n) * math.Log(targetFPR) / (ln2 * ln2))
	if m < 8 {
		m = 8
	}
	k := int(math.Round((m / float64(n)) * ln2))
	if k < 1 {
		k = 1
	}
	return uint64(m), uint32(k)
}

// New returns an empty filter sized for n expected elements at
// targetFPR.
func New(n int, targetFPR float64) *Filter {
	numBits, numHash := Size(n, targetFPR)
	return &Filter{
		bits:    make([]byte, (numBits+7)/8),
		numBits: numBits,
		numHash: numHash,
	}
}

// hashes returns the numHash bit positions for id: FNV-1a applied to
// id with the hash index i prefixed, so two independent
// implementations agree on bit positions without exchanging any
// session-specific state.
func (f *Filter) hashes(id []byte) []uint64 {
	out := make([]uint64, f.numHash)
	var idxBuf [4]byte
	for i := uint32(0); i < f.numHash; i++ {
		binary.LittleEndian.PutUint32(idxBuf[:], i)
		h := fnv.New64a()
		h.Write(idxBuf[:])
		h.Write(id)
		out[i] = h.Sum64() % f.numBits
	}
	return out
}

// Bits returns the filter's raw bit array. The returned slice is owned
// by f; callers must not mutate it.
func (f *Filter) Bits() []byte { return f.bits }

// NumBits returns the filter's bit-array width.
func (f *Filter) NumBits() uint64 { return f.numBits }

// NumHash returns the number of hash functions (bit positions set per
// element).
func (f *Filter) NumHash() uint32 { return f.numHash }

// FromParts reconstructs a Filter from its wire-transmitted components,
// without going through the length-prefixed Encode/Decode byte format
// (used when another package, e.g. strategy, already has the fields
// broken out from a wire.BloomFilterData message).
func FromParts(bits []byte, numBits uint64, numHash uint32) *Filter {
	return &Filter{bits: bits, numBits: numBits, numHash: numHash}
}

// Add sets every bit position for id.
func (f *Filter) Add(id []byte) {
	for _, pos := range f.hashes(id) {
		f.bits[pos/8] |= 1 << (pos % 8)
	}
}

// MightContain reports whether id may be in the filter. A false result
// is certain; a true result may be a false positive.
func (f *Filter) MightContain(id []byte) bool {
	for _, pos := range f.hashes(id) {
		if f.bits[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}
	return true
}

// EstimatedFPR returns the filter's expected false positive rate given
// its current fill level: (setBits/m)^k, the fraction of set bits
// raised to the number of hash functions.
func (f *Filter) EstimatedFPR() float64 {
	setBits := 0
	for _, b := range f.bits {
		for b != 0 {
			setBits += int(b & 1)
			b >>= 1
		}
	}
	if f.numBits == 0 {
		return 0
	}
	fillRatio := float64(setBits) / float64(f.numBits)
	return math.Pow(fillRatio, float64(f.numHash))
}

// Encode returns the canonical wire encoding of f: numBits, numHash,
// then the raw bit array.
func (f *Filter) Encode() []byte {
	p := wrappers.NewPacker(13 + len(f.bits))
	p.PackUint64(f.numBits)
	p.PackUint32(f.numHash)
	p.PackBytes(f.bits)
	return p.Bytes
}

// Decode parses b as produced by Encode.
func Decode(b []byte) (*Filter, error) {
	u := wrappers.NewUnpacker(b)
	numBits := u.UnpackUint64()
	numHash := u.UnpackUint32()
	bits := u.UnpackBytes()
	if u.Err != nil || !u.Done() {
		return nil, wrappers.ErrShortBuffer
	}
	return &Filter{bits: bits, numBits: numBits, numHash: numHash}, nil
}
