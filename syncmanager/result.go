// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syncmanager

import "time"

// State is a session's position in the Idle -> Handshake -> Negotiating
// -> Transferring -> Replaying -> Idle state machine, with Failed as
// the terminal error state reachable from any of the others.
type State int

const (
	StateIdle State = iota
	StateHandshake
	StateNegotiating
	StateTransferring
	StateReplaying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHandshake:
		return "handshake"
	case StateNegotiating:
		return "negotiating"
	case StateTransferring:
		return "transferring"
	case StateReplaying:
		return "replaying"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SyncResult is the only information a session reports externally: a
// summary of what happened, never the internal wire traffic that
// produced it.
type SyncResult struct {
	Status           State
	Reason           Reason
	EntitiesMerged   int
	EntitiesFailed   int
	DurationMS       int64
	SelectedProtocol string
}

func newResult(status State, reason Reason, merged, failed int, start time.Time) SyncResult {
	return SyncResult{
		Status:         status,
		Reason:         reason,
		EntitiesMerged: merged,
		EntitiesFailed: failed,
		DurationMS:     time.Since(start).Milliseconds(),
	}
}
