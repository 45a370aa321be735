// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syncmanager

import (
	"github.com/luxfi/hybridsync/config"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// selectionInput is the subset of both sides' handshakes the selection
// algorithm needs. "local" is the requester (the side that will act on
// the chosen protocol); "remote" is the side answering the handshake
// and running selectProtocol. missingDeltaCount approximates how many
// deltas the requester lacks, since the handshake only carries head
// sets, not a full delta id set.
type selectionInput struct {
	localRootHash   model.Hash
	localHasState   bool
	localDagHeads   []model.DeltaId
	remoteRootHash  model.Hash
	remoteHasState  bool
	remoteDagHeads  []model.DeltaId
	remoteEntityCnt uint64
	remoteMaxDepth  uint32

	missingDeltaCount int
	divergenceRatio   float64
}

// selectProtocol runs the five ordered rules and returns the chosen
// protocol. It never returns ProtocolSnapshot when in.localHasState is
// true, even if every other rule would otherwise pick it (rule 5 is a
// hard override, not a tie-breaker).
func selectProtocol(in selectionInput, cfg config.Parameters) wire.ProtocolTag {
	if in.localRootHash == in.remoteRootHash && headsEqual(in.localDagHeads, in.remoteDagHeads) {
		return wire.ProtocolNone
	}

	if !in.localHasState && in.remoteHasState {
		return wire.ProtocolSnapshot
	}

	if in.missingDeltaCount <= cfg.DeltaSyncThreshold {
		return wire.ProtocolDelta
	}

	// None of these branches can select Snapshot: that only ever
	// happens via the !local.has_state case above, so a node with
	// state already never reaches Snapshot through this switch either.
	switch {
	case in.divergenceRatio < cfg.DivergenceRatioBloomFilter && in.remoteEntityCnt > 50:
		return wire.ProtocolBloomFilter
	case in.divergenceRatio < cfg.DivergenceRatioSubtreePrefetch && in.remoteMaxDepth > 3:
		return wire.ProtocolSubtreePrefetch
	case in.remoteMaxDepth <= 2:
		return wire.ProtocolLevelWise
	default:
		return wire.ProtocolHashComparison
	}
}

func headsEqual(a, b []model.DeltaId) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[model.DeltaId]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}

// missingDeltaCount counts how many of remote's dag_heads (and their
// implied ancestry, approximated here by the heads themselves since the
// full ancestor set isn't available before a sync begins) local does
// not already contain.
func missingDeltaCount(localContains func(model.DeltaId) bool, remoteHeads []model.DeltaId) int {
	n := 0
	for _, id := range remoteHeads {
		if !localContains(id) {
			n++
		}
	}
	return n
}
