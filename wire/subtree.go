// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// SubtreePrefetchRequest asks for every leaf beneath a set of subtree
// roots in one round trip, favoring deep trees with clustered changes
// over the per-node chatter of HashComparison.
type SubtreePrefetchRequest struct {
	SubtreeRootHashes []model.Hash
	MaxDepth          *uint32
}

func (SubtreePrefetchRequest) Tag() Tag { return TagSubtreePrefetchRequest }

func (r SubtreePrefetchRequest) Encode() []byte {
	p := wrappers.NewPacker(8 + 32*len(r.SubtreeRootHashes))
	packHashes(p, r.SubtreeRootHashes)
	packOptionalUint32(p, r.MaxDepth)
	return p.Bytes
}

func DecodeSubtreePrefetchRequest(b []byte) (SubtreePrefetchRequest, error) {
	u := wrappers.NewUnpacker(b)
	roots := unpackHashes(u)
	depth := unpackOptionalUint32(u)
	if u.Err != nil || !u.Done() {
		return SubtreePrefetchRequest{}, wrappers.ErrShortBuffer
	}
	return SubtreePrefetchRequest{SubtreeRootHashes: roots, MaxDepth: depth}, nil
}

// SubtreePrefetchResponse returns every leaf found beneath the
// requested subtree roots.
type SubtreePrefetchResponse struct {
	Leaves []TreeLeafData
}

func (SubtreePrefetchResponse) Tag() Tag { return TagSubtreePrefetchResponse }

func (r SubtreePrefetchResponse) Encode() []byte {
	p := wrappers.NewPacker(64 * len(r.Leaves))
	p.PackUint32(uint32(len(r.Leaves)))
	for _, l := range r.Leaves {
		packTreeLeafData(p, l)
	}
	return p.Bytes
}

func DecodeSubtreePrefetchResponse(b []byte) (SubtreePrefetchResponse, error) {
	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	if u.Err != nil {
		return SubtreePrefetchResponse{}, u.Err
	}
	out := make([]TreeLeafData, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, unpackTreeLeafData(u))
		if u.Err != nil {
			return SubtreePrefetchResponse{}, u.Err
		}
	}
	if !u.Done() {
		return SubtreePrefetchResponse{}, wrappers.ErrShortBuffer
	}
	return SubtreePrefetchResponse{Leaves: out}, nil
}
