// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// BloomFilterData is the wire form of a bloomfilter.Filter: the raw bit
// array plus enough to reconstruct its hash positions. Matches the
// normative filter schema bit-for-bit: bits, num_bits, num_hashes, no
// salt — both peers derive identical hash positions from the id bytes
// alone, so nothing session-specific needs to cross the wire.
type BloomFilterData struct {
	Bits    []byte
	NumBits uint64
	NumHash uint32
}

func packBloomFilterData(p *wrappers.Packer, d BloomFilterData) {
	p.PackUint64(d.NumBits)
	p.PackUint32(d.NumHash)
	p.PackBytes(d.Bits)
}

func unpackBloomFilterData(u *wrappers.Unpacker) BloomFilterData {
	numBits := u.UnpackUint64()
	numHash := u.UnpackUint32()
	bits := u.UnpackBytes()
	if u.Err != nil {
		return BloomFilterData{}
	}
	return BloomFilterData{Bits: bits, NumBits: numBits, NumHash: numHash}
}

// BloomFilterRequest sends the initiator's bloom filter of entity ids
// so the responder can compute which of its own entities are probably
// missing on the other side.
type BloomFilterRequest struct {
	Filter            BloomFilterData
	FalsePositiveRate float32
}

func (BloomFilterRequest) Tag() Tag { return TagBloomFilterRequest }

func (r BloomFilterRequest) Encode() []byte {
	p := wrappers.NewPacker(32 + len(r.Filter.Bits))
	packBloomFilterData(p, r.Filter)
	p.PackUint32(float32bits(r.FalsePositiveRate))
	return p.Bytes
}

func DecodeBloomFilterRequest(b []byte) (BloomFilterRequest, error) {
	u := wrappers.NewUnpacker(b)
	filter := unpackBloomFilterData(u)
	fprBits := u.UnpackUint32()
	if u.Err != nil || !u.Done() {
		return BloomFilterRequest{}, wrappers.ErrShortBuffer
	}
	return BloomFilterRequest{Filter: filter, FalsePositiveRate: float32frombits(fprBits)}, nil
}

// BloomFilterResponse returns the full (key, value, metadata) tuples
// for entities the filter indicated the requester may be missing.
type BloomFilterResponse struct {
	MissingEntities []TreeLeafData
}

func (BloomFilterResponse) Tag() Tag { return TagBloomFilterResponse }

func (r BloomFilterResponse) Encode() []byte {
	p := wrappers.NewPacker(64 * len(r.MissingEntities))
	p.PackUint32(uint32(len(r.MissingEntities)))
	for _, l := range r.MissingEntities {
		packTreeLeafData(p, l)
	}
	return p.Bytes
}

func DecodeBloomFilterResponse(b []byte) (BloomFilterResponse, error) {
	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	if u.Err != nil {
		return BloomFilterResponse{}, u.Err
	}
	out := make([]TreeLeafData, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, unpackTreeLeafData(u))
		if u.Err != nil {
			return BloomFilterResponse{}, u.Err
		}
	}
	if !u.Done() {
		return BloomFilterResponse{}, wrappers.ErrShortBuffer
	}
	return BloomFilterResponse{MissingEntities: out}, nil
}
