// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// LevelWiseRequest walks the Merkle tree breadth-first: the requester
// names a level and the parent hashes at that level whose children it
// needs. The first request of a session uses Level 0 with a single
// ParentHash equal to the root.
type LevelWiseRequest struct {
	Level        uint32
	ParentHashes []model.Hash
}

func (LevelWiseRequest) Tag() Tag { return TagLevelWiseRequest }

func (r LevelWiseRequest) Encode() []byte {
	p := wrappers.NewPacker(8 + 32*len(r.ParentHashes))
	p.PackUint32(r.Level)
	packHashes(p, r.ParentHashes)
	return p.Bytes
}

func DecodeLevelWiseRequest(b []byte) (LevelWiseRequest, error) {
	u := wrappers.NewUnpacker(b)
	level := u.UnpackUint32()
	parents := unpackHashes(u)
	if u.Err != nil || !u.Done() {
		return LevelWiseRequest{}, wrappers.ErrShortBuffer
	}
	return LevelWiseRequest{Level: level, ParentHashes: parents}, nil
}

// LevelNode is one child hash at the requested level, tagged with the
// parent it hung from so the requester can keep walking downward, and
// carrying LeafData when the child is itself a leaf.
type LevelNode struct {
	Hash       model.Hash
	ParentHash model.Hash
	LeafData   *TreeLeafData
}

func packLevelNode(p *wrappers.Packer, n LevelNode) {
	p.PackFixedBytes(n.Hash.Bytes())
	p.PackFixedBytes(n.ParentHash.Bytes())
	packOptionalTreeLeafData(p, n.LeafData)
}

func unpackLevelNode(u *wrappers.Unpacker) LevelNode {
	hashBytes := u.UnpackFixedBytes(32)
	parentBytes := u.UnpackFixedBytes(32)
	leaf := unpackOptionalTreeLeafData(u)
	if u.Err != nil {
		return LevelNode{}
	}
	return LevelNode{Hash: model.HashFromBytes(hashBytes), ParentHash: model.HashFromBytes(parentBytes), LeafData: leaf}
}

// LevelWiseResponse returns every child at Level hanging off the
// requested parents.
type LevelWiseResponse struct {
	Level uint32
	Nodes []LevelNode
}

func (LevelWiseResponse) Tag() Tag { return TagLevelWiseResponse }

func (r LevelWiseResponse) Encode() []byte {
	p := wrappers.NewPacker(8 + 80*len(r.Nodes))
	p.PackUint32(r.Level)
	p.PackUint32(uint32(len(r.Nodes)))
	for _, n := range r.Nodes {
		packLevelNode(p, n)
	}
	return p.Bytes
}

func DecodeLevelWiseResponse(b []byte) (LevelWiseResponse, error) {
	u := wrappers.NewUnpacker(b)
	level := u.UnpackUint32()
	n := u.UnpackUint32()
	if u.Err != nil {
		return LevelWiseResponse{}, u.Err
	}
	nodes := make([]LevelNode, 0, n)
	for i := uint32(0); i < n; i++ {
		nodes = append(nodes, unpackLevelNode(u))
		if u.Err != nil {
			return LevelWiseResponse{}, u.Err
		}
	}
	if !u.Done() {
		return LevelWiseResponse{}, wrappers.ErrShortBuffer
	}
	return LevelWiseResponse{Level: level, Nodes: nodes}, nil
}
