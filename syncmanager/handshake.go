// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syncmanager

import (
	"github.com/luxfi/hybridsync/config"
	"github.com/luxfi/hybridsync/dag"
	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// RespondHandshake answers an incoming SyncHandshake by running
// protocol selection and returning the result already decided, so the
// initiator never needs its own copy of the algorithm — it only acts
// on whatever SelectedProtocol comes back. The selection rules are
// phrased in terms of "local" (the requester, req) and "remote" (this
// node, the one answering): rule 2's "local" is whoever lacks state and
// would receive a Snapshot, which is the requester, not the responder.
func RespondHandshake(req wire.SyncHandshake, localDAG *dag.DAG, localIndex *merkle.Index, cfg config.Parameters) wire.SyncHandshakeResponse {
	requesterHeads := make(map[model.DeltaId]bool, len(req.DagHeads))
	for _, id := range req.DagHeads {
		requesterHeads[id] = true
	}

	in := selectionInput{
		localRootHash:   req.RootHash,
		localHasState:   req.HasState,
		localDagHeads:   req.DagHeads,
		remoteRootHash:  localIndex.RootHash(),
		remoteHasState:  !localIndex.IsEmpty(),
		remoteDagHeads:  localDAG.Heads(),
		remoteEntityCnt: uint64(localIndex.Len()),
		remoteMaxDepth:  uint32(localIndex.Depth()),
	}
	// The requester's missing delta count is how many of this node's
	// own heads the requester's advertised heads don't already cover —
	// the best available proxy for "deltas the requester lacks" given
	// the handshake only carries head sets, not full ancestries.
	in.missingDeltaCount = missingDeltaCount(func(id model.DeltaId) bool {
		return requesterHeads[id]
	}, localDAG.Heads())
	in.divergenceRatio = estimateDivergenceRatio(req.EntityCount, uint64(localIndex.Len()))

	protocol := selectProtocol(in, cfg)

	return wire.SyncHandshakeResponse{
		SelectedProtocol: protocol,
		RootHash:         localIndex.RootHash(),
		EntityCount:      uint64(localIndex.Len()),
		Capabilities: wire.Capabilities{
			MaxBatchSize:       uint32(cfg.SnapshotPageSize),
			SupportedProtocols: allProtocols,
		},
	}
}
