// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package strategy

import (
	"context"

	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// RunLevelWiseInitiator walks the peer's tree breadth-first, one level
// per round trip, requesting only children of parents whose hash is
// not already present locally. Compared to HashComparison's one
// request per node, this bounds round-trip count by tree depth
// rather than by the number of differing subtrees, which favors trees
// with many small scattered differences.
func RunLevelWiseInitiator(ctx context.Context, t Transport, merger EntityMerger, remoteRoot model.Hash) (Stats, error) {
	var stats Stats

	if merger.Index.RootHash() == remoteRoot || remoteRoot == model.ZeroHash {
		return stats, nil
	}

	level := uint32(0)
	parents := []model.Hash{remoteRoot}

	for len(parents) > 0 {
		var pending []model.Hash
		for _, p := range parents {
			if _, _, found := merger.Index.Children(p); !found {
				pending = append(pending, p)
			}
		}
		if len(pending) == 0 {
			return stats, nil
		}

		resp, err := t.LevelWise(ctx, wire.LevelWiseRequest{Level: level, ParentHashes: pending})
		if err != nil {
			return stats, err
		}

		var nextParents []model.Hash
		for _, node := range resp.Nodes {
			if node.LeafData != nil {
				if err := merger.Apply(ctx, *node.LeafData); err != nil {
					stats.EntitiesFailed++
					continue
				}
				stats.EntitiesMerged++
				continue
			}
			nextParents = append(nextParents, node.Hash)
		}

		parents = nextParents
		level++
	}

	return stats, nil
}

// RespondLevelWise answers with the direct children of every requested
// parent hash, tagging leaves with their data so the initiator can stop
// descending that branch.
func RespondLevelWise(req wire.LevelWiseRequest, local *merkle.Index) wire.LevelWiseResponse {
	var nodes []wire.LevelNode
	for _, parent := range req.ParentHashes {
		children, isLeaf, found := local.Children(parent)
		if !found || isLeaf {
			continue
		}
		for _, child := range children {
			node := wire.LevelNode{Hash: child, ParentHash: parent}
			if _, childIsLeaf, childFound := local.Children(child); childFound && childIsLeaf {
				if entity, ok := local.LeafEntity(child); ok {
					node.LeafData = &wire.TreeLeafData{Key: entity.ID, Value: entity.Value, Metadata: entity.Metadata}
				}
			}
			nodes = append(nodes, node)
		}
	}
	return wire.LevelWiseResponse{Level: req.Level + 1, Nodes: nodes}
}
