// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package strategy

import (
	"context"

	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// RunHashComparisonInitiator recursively descends the peer's Merkle
// tree from remoteRoot, requesting only the subtrees whose hash is not
// already present anywhere in merger.Index's own tree, and merging
// every leaf it has to fetch. This is the safe default strategy:
// O(k log n) round trips where k is the number of actually-differing
// entities, degrading gracefully to O(n) only when almost everything
// differs.
func RunHashComparisonInitiator(ctx context.Context, t Transport, merger EntityMerger, remoteRoot model.Hash) (Stats, error) {
	var stats Stats

	if merger.Index.RootHash() == remoteRoot {
		return stats, nil
	}
	if remoteRoot == model.ZeroHash {
		return stats, nil
	}

	queue := []model.Hash{remoteRoot}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		if _, _, found := merger.Index.Children(h); found {
			// Identical subtree already present locally; nothing to fetch.
			continue
		}

		resp, err := t.TreeNode(ctx, wire.TreeNodeRequest{NodeHash: h})
		if err != nil {
			return stats, err
		}

		for _, node := range resp.Nodes {
			if node.LeafData != nil {
				if err := merger.Apply(ctx, *node.LeafData); err != nil {
					stats.EntitiesFailed++
					continue
				}
				stats.EntitiesMerged++
				continue
			}
			for _, child := range node.Children {
				if _, _, found := merger.Index.Children(child); !found {
					queue = append(queue, child)
				}
			}
		}
	}

	return stats, nil
}

// RespondTreeNode answers a TreeNodeRequest with the single node
// identified by req.NodeHash from local's own tree: its children if
// it's internal, or its (key, value, metadata) if it's a leaf. Unknown
// hashes get an empty response rather than an error — the initiator
// simply learns nothing new about that branch.
func RespondTreeNode(req wire.TreeNodeRequest, local *merkle.Index) wire.TreeNodeResponse {
	children, isLeaf, found := local.Children(req.NodeHash)
	if !found {
		return wire.TreeNodeResponse{}
	}

	node := wire.TreeNode{Hash: req.NodeHash}
	if isLeaf {
		if entity, ok := local.LeafEntity(req.NodeHash); ok {
			node.LeafData = &wire.TreeLeafData{Key: entity.ID, Value: entity.Value, Metadata: entity.Metadata}
		}
	} else {
		node.Children = children
	}

	return wire.TreeNodeResponse{Nodes: []wire.TreeNode{node}}
}
