// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package strategy

import (
	"context"
	"errors"

	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// ErrNotEmpty is returned by RunSnapshotInitiator when the local index
// already holds entities: Snapshot is fresh-node bootstrap only.
// Callers (syncmanager) must catch this and downgrade to
// HashComparison rather than let the session fail outright — safety
// refusals silently downgrade.
var ErrNotEmpty = errors.New("strategy: snapshot requires an empty local index")

// ErrVerificationFailed is returned when the transferred pages' leaves
// do not hash to the root hash SnapshotComplete claims. This check
// runs before any page is committed.
var ErrVerificationFailed = errors.New("strategy: snapshot root hash verification failed")

// RunSnapshotInitiator requests a full state transfer and, only after
// recomputing the Merkle root over every transferred entity and
// checking it against SnapshotComplete's claimed root, writes every
// entity into merger.Index. No entity is written if verification
// fails, and none is written until every page has arrived and been
// verified, so a torn or tampered snapshot never reaches durable
// state.
func RunSnapshotInitiator(ctx context.Context, t Transport, merger EntityMerger, compressed bool) (Stats, error) {
	if !merger.Index.IsEmpty() {
		return Stats{}, ErrNotEmpty
	}

	pages, complete, err := t.Snapshot(ctx, wire.SnapshotRequest{Compressed: compressed})
	if err != nil {
		return Stats{}, err
	}

	var entities []model.Entity
	for _, page := range pages {
		for _, e := range page.Entities {
			entities = append(entities, model.Entity{ID: e.ID, Value: e.Value, Metadata: e.Metadata})
		}
	}

	if uint64(len(entities)) != complete.TotalEntities {
		return Stats{}, ErrVerificationFailed
	}

	staging := merkle.NewIndex()
	for _, e := range entities {
		staging.Put(e)
	}
	if staging.RootHash() != complete.RootHash {
		return Stats{}, ErrVerificationFailed
	}

	for _, e := range entities {
		merger.Index.Put(e)
	}

	return Stats{EntitiesMerged: len(entities)}, nil
}

// RespondSnapshot pages every entity in local out in ascending id order,
// splitting at pageSize entities per page, and returns the pages plus
// the completion message carrying the authoritative root hash.
func RespondSnapshot(local *merkle.Index, pageSize int) ([]wire.SnapshotPage, wire.SnapshotComplete) {
	ids := local.OrderedIDs()
	if pageSize < 1 {
		pageSize = len(ids)
		if pageSize == 0 {
			pageSize = 1
		}
	}

	totalPages := (len(ids) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	pages := make([]wire.SnapshotPage, 0, totalPages)
	for pageNum := 0; pageNum < totalPages; pageNum++ {
		start := pageNum * pageSize
		end := start + pageSize
		if end > len(ids) {
			end = len(ids)
		}

		entities := make([]wire.SnapshotEntity, 0, end-start)
		for _, id := range ids[start:end] {
			e, ok := local.Get(id)
			if !ok {
				continue
			}
			entities = append(entities, wire.SnapshotEntity{ID: e.ID, Value: e.Value, Metadata: e.Metadata})
		}

		pages = append(pages, wire.SnapshotPage{
			PageNumber: uint32(pageNum),
			TotalPages: uint32(totalPages),
			Entities:   entities,
		})
	}

	return pages, wire.SnapshotComplete{
		RootHash:      local.RootHash(),
		TotalEntities: uint64(len(ids)),
	}
}
