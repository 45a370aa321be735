// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package strategy

import (
	"context"
	"errors"

	"github.com/luxfi/hybridsync/dag"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// ErrUnresolvedParent is returned by RunDeltaInitiator when the
// responder's DeltaSync reply contains at least one delta whose parent
// is still missing locally after applying the whole response. The
// causal gap is wider than this node believed, and delta sync alone
// cannot close it — the caller should escalate to HashComparison.
var ErrUnresolvedParent = errors.New("delta sync response referenced an unknown parent")

// RunDeltaInitiator requests the CausalDelta values behind missingIDs
// and inserts each into localDAG. It is the right choice when the
// causal gap is small (at most config.DeltaSyncThreshold missing ids)
// since it costs one request/response round trip regardless of tree
// size.
//
// A delta whose parent is not yet applied locally is held Pending by
// localDAG rather than rejected; it is not a merge failure, but it
// does mean this delta exchange alone did not close the gap, so the
// caller must know about it. RunDeltaInitiator reports that case by
// returning ErrUnresolvedParent alongside the stats for every delta
// that did apply.
func RunDeltaInitiator(ctx context.Context, t Transport, missingIDs []model.DeltaId, localDAG *dag.DAG) (Stats, error) {
	if len(missingIDs) == 0 {
		return Stats{}, nil
	}

	resp, err := t.DeltaSync(ctx, wire.DeltaSyncRequest{MissingDeltaIDs: missingIDs})
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	var unresolved bool
	for _, delta := range resp.Deltas {
		state, err := localDAG.Insert(delta)
		if err != nil {
			stats.EntitiesFailed++
			continue
		}
		if state == dag.Pending {
			unresolved = true
			continue
		}
		stats.EntitiesMerged++
	}
	if unresolved {
		return stats, ErrUnresolvedParent
	}
	return stats, nil
}

// RespondDelta answers a DeltaSyncRequest with every requested delta
// this node has applied. Ids the responder does not have are silently
// omitted; the requester's dag.DAG will simply hold the corresponding
// deltas Pending until a later sync fills the gap.
func RespondDelta(req wire.DeltaSyncRequest, localDAG *dag.DAG) wire.DeltaSyncResponse {
	deltas := make([]model.CausalDelta, 0, len(req.MissingDeltaIDs))
	for _, id := range req.MissingDeltaIDs {
		if d, ok := localDAG.Get(id); ok {
			deltas = append(deltas, d)
		}
	}
	return wire.DeltaSyncResponse{Deltas: deltas}
}
