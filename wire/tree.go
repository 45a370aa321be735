// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// TreeNode is one Merkle node as transferred by the HashComparison
// strategy: either an internal node (Children set, LeafData nil) or a
// leaf (Children empty, LeafData set).
type TreeNode struct {
	Hash     model.Hash
	Children []model.Hash
	LeafData *TreeLeafData
}

func packTreeNode(p *wrappers.Packer, n TreeNode) {
	p.PackFixedBytes(n.Hash.Bytes())
	packHashes(p, n.Children)
	packOptionalTreeLeafData(p, n.LeafData)
}

func unpackTreeNode(u *wrappers.Unpacker) TreeNode {
	hashBytes := u.UnpackFixedBytes(32)
	children := unpackHashes(u)
	leaf := unpackOptionalTreeLeafData(u)
	if u.Err != nil {
		return TreeNode{}
	}
	return TreeNode{Hash: model.HashFromBytes(hashBytes), Children: children, LeafData: leaf}
}

// TreeNodeRequest asks for the node at NodeHash. MaxDepth is carried on
// the wire, but strategy.RespondTreeNode ignores it and always answers
// with that single node.
type TreeNodeRequest struct {
	NodeHash model.Hash
	MaxDepth *uint32
}

func (TreeNodeRequest) Tag() Tag { return TagTreeNodeRequest }

func (r TreeNodeRequest) Encode() []byte {
	p := wrappers.NewPacker(37)
	p.PackFixedBytes(r.NodeHash.Bytes())
	packOptionalUint32(p, r.MaxDepth)
	return p.Bytes
}

func DecodeTreeNodeRequest(b []byte) (TreeNodeRequest, error) {
	u := wrappers.NewUnpacker(b)
	hashBytes := u.UnpackFixedBytes(32)
	depth := unpackOptionalUint32(u)
	if u.Err != nil || !u.Done() {
		return TreeNodeRequest{}, wrappers.ErrShortBuffer
	}
	return TreeNodeRequest{NodeHash: model.HashFromBytes(hashBytes), MaxDepth: depth}, nil
}

// TreeNodeResponse returns the nodes answering a TreeNodeRequest
// (strategy.RespondTreeNode sends at most one).
type TreeNodeResponse struct {
	Nodes []TreeNode
}

func (TreeNodeResponse) Tag() Tag { return TagTreeNodeResponse }

func (r TreeNodeResponse) Encode() []byte {
	p := wrappers.NewPacker(64 * len(r.Nodes))
	p.PackUint32(uint32(len(r.Nodes)))
	for _, n := range r.Nodes {
		packTreeNode(p, n)
	}
	return p.Bytes
}

func DecodeTreeNodeResponse(b []byte) (TreeNodeResponse, error) {
	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	if u.Err != nil {
		return TreeNodeResponse{}, u.Err
	}
	nodes := make([]TreeNode, 0, n)
	for i := uint32(0); i < n; i++ {
		nodes = append(nodes, unpackTreeNode(u))
		if u.Err != nil {
			return TreeNodeResponse{}, u.Err
		}
	}
	if !u.Done() {
		return TreeNodeResponse{}, wrappers.ErrShortBuffer
	}
	return TreeNodeResponse{Nodes: nodes}, nil
}
