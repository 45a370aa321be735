// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package strategy implements the six sync strategies as
// Initiator/Responder function pairs operating over a Transport: the
// initiator is the peer that decided (via syncmanager's protocol
// selection) which strategy to run and drives the request side, the
// responder answers requests against its own merkle.Index/dag.DAG. None
// of these functions own a network connection; syncmanager wires a
// Transport implementation around wire.WriteFrame/ReadMessage and an
// io.ReadWriter per session.
package strategy

import (
	"context"

	"github.com/luxfi/hybridsync/crdt"
	"github.com/luxfi/hybridsync/kvstore"
	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// Transport is the initiator-side request/response boundary every
// strategy drives. syncmanager.Session implements it over a framed
// wire connection; tests implement it over an in-memory responder.
type Transport interface {
	DeltaSync(ctx context.Context, req wire.DeltaSyncRequest) (wire.DeltaSyncResponse, error)
	TreeNode(ctx context.Context, req wire.TreeNodeRequest) (wire.TreeNodeResponse, error)
	BloomFilter(ctx context.Context, req wire.BloomFilterRequest) (wire.BloomFilterResponse, error)
	SubtreePrefetch(ctx context.Context, req wire.SubtreePrefetchRequest) (wire.SubtreePrefetchResponse, error)
	LevelWise(ctx context.Context, req wire.LevelWiseRequest) (wire.LevelWiseResponse, error)
	Snapshot(ctx context.Context, req wire.SnapshotRequest) ([]wire.SnapshotPage, wire.SnapshotComplete, error)
}

// Stats reports what an Initiator run accomplished, for syncmanager to
// fold into the session-level SyncResult.
type Stats struct {
	EntitiesMerged int
	EntitiesFailed int
}

// EntityMerger applies one remote (key, value, metadata) tuple against
// local state: fetch the local entity if present, run crdt.Merge, and
// Put the merged result back into the index. It is shared by every
// strategy's initiator so each one does not reimplement the merge/put
// sequence; per-entity merge failures are non-fatal to the overall run.
type EntityMerger struct {
	Index      *merkle.Index
	WasmCB     crdt.WasmCallback
	OnFallback func(entityID model.EntityId)

	// OnMergeError, if set, is called with every error Apply returns,
	// in addition to returning it. A session uses this to tally
	// failures by kind toward its merge failure budget without
	// threading an error value through every strategy's Stats.
	OnMergeError func(err error)

	// Store, if set, receives a write-through copy of every
	// successfully merged entity's value, keyed by entity id. The
	// in-memory Index remains authoritative for the running session
	// (it is what Merkle-hash comparisons read from); Store exists so
	// a node can survive a restart without re-running a full snapshot
	// against every peer.
	Store kvstore.Store
}

// Apply merges leaf into m.Index, returning the MergeError (if any) so
// callers can count it toward the session's failure budget without
// aborting the whole strategy run.
func (m EntityMerger) Apply(ctx context.Context, leaf wire.TreeLeafData) error {
	localEntity, hasLocal := m.Index.Get(leaf.Key)

	var localValue []byte
	localMeta := leaf.Metadata
	if hasLocal {
		localValue = localEntity.Value
		localMeta = localEntity.Metadata
	}

	var onFallback crdt.FallbackLogger
	if m.OnFallback != nil {
		onFallback = func() { m.OnFallback(leaf.Key) }
	}

	merged, mergedMeta, err := crdt.Merge(ctx, localValue, leaf.Value, localMeta, leaf.Metadata, m.WasmCB, onFallback)
	if err != nil {
		if m.OnMergeError != nil {
			m.OnMergeError(err)
		}
		return err
	}

	m.Index.Put(model.Entity{ID: leaf.Key, Value: merged, Metadata: mergedMeta})

	if m.Store != nil {
		if err := m.Store.Put(leaf.Key.Bytes(), merged); err != nil {
			if m.OnMergeError != nil {
				m.OnMergeError(err)
			}
			return err
		}
	}

	return nil
}
