// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package strategy

import (
	"context"

	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// RunSubtreePrefetchInitiator requests every leaf beneath roots in a
// single round trip. Favored over HashComparison's per-node chatter
// when changes are known to cluster under a small number of subtrees
// — deep trees with localized edits.
func RunSubtreePrefetchInitiator(ctx context.Context, t Transport, merger EntityMerger, roots []model.Hash) (Stats, error) {
	if len(roots) == 0 {
		return Stats{}, nil
	}

	resp, err := t.SubtreePrefetch(ctx, wire.SubtreePrefetchRequest{SubtreeRootHashes: roots})
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, leaf := range resp.Leaves {
		if err := merger.Apply(ctx, leaf); err != nil {
			stats.EntitiesFailed++
			continue
		}
		stats.EntitiesMerged++
	}
	return stats, nil
}

// RespondSubtreePrefetch collects every leaf reachable under each
// requested root by walking local's tree breadth-first.
func RespondSubtreePrefetch(req wire.SubtreePrefetchRequest, local *merkle.Index) wire.SubtreePrefetchResponse {
	var leaves []wire.TreeLeafData
	visited := make(map[model.Hash]bool)

	queue := append([]model.Hash(nil), req.SubtreeRootHashes...)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if visited[h] {
			continue
		}
		visited[h] = true

		children, isLeaf, found := local.Children(h)
		if !found {
			continue
		}
		if isLeaf {
			if entity, ok := local.LeafEntity(h); ok {
				leaves = append(leaves, wire.TreeLeafData{Key: entity.ID, Value: entity.Value, Metadata: entity.Metadata})
			}
			continue
		}
		queue = append(queue, children...)
	}

	return wire.SubtreePrefetchResponse{Leaves: leaves}
}
