// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the tunables that govern sync session behavior:
// strategy-selection thresholds, timeouts, and the failure budget a
// session tolerates before abandoning a merge. Parameters is the plain
// value type consumed by syncmanager and strategy; Builder (in
// builder.go) is the fluent constructor used at node startup, keeping
// the validated value type separate from the builder that produces it.
package config

import "time"

// Parameters governs how a Manager selects and runs sync strategies for
// a single (context, peer) session.
type Parameters struct {
	// DeltaSyncThreshold is the maximum number of missing delta ids the
	// Delta strategy will request individually before the manager
	// prefers a coarser strategy.
	DeltaSyncThreshold int

	// BloomTargetFPR is the false-positive rate the BloomFilter
	// strategy sizes its filter for.
	BloomTargetFPR float64

	// SessionTimeout bounds the total wall-clock lifetime of a sync
	// session from Handshake to Replaying before it is aborted; an
	// aborted session ends in Failed.
	SessionTimeout time.Duration

	// MessageTimeout bounds how long a session waits for the peer's
	// handshake response. Strategy request/response exchanges after the
	// handshake are bounded by SessionTimeout only, not per message.
	MessageTimeout time.Duration

	// WasmCallbackTimeout bounds a single invocation of a Custom CRDT
	// type's WASM merge callback.
	WasmCallbackTimeout time.Duration

	// MaxMergeFailureFraction is the fraction of entities in a session
	// that may fail to merge (MergeError) before the session as a
	// whole is marked failed rather than partially-applied.
	MaxMergeFailureFraction float64

	// SnapshotPageSize is the number of entities sent per page during
	// the Snapshot strategy's bulk transfer.
	SnapshotPageSize int

	// DeltaBufferCapacity is the bounded FIFO capacity of the per-peer
	// delta buffer; it never silently drops, so this is a soft cap that
	// triggers a logged warning at 80% full rather than a hard limit
	// that discards deltas.
	DeltaBufferCapacity int

	// DivergenceRatioBloomFilter and DivergenceRatioSubtreePrefetch are
	// the fractional-difference breakpoints the manager's protocol
	// selection algorithm uses once a sync has fallen past the Delta
	// threshold: below DivergenceRatioBloomFilter (with enough entities
	// to be worth it) prefer BloomFilter, below
	// DivergenceRatioSubtreePrefetch (with a deep enough tree) prefer
	// SubtreePrefetch, otherwise LevelWise or HashComparison. Neither
	// breakpoint ever selects Snapshot — that route is reserved for a
	// node with no local state at all.
	DivergenceRatioBloomFilter     float64
	DivergenceRatioSubtreePrefetch float64
}

// DefaultParameters returns the parameters used when a node does not
// override anything.
func DefaultParameters() Parameters {
	return Parameters{
		DeltaSyncThreshold:      50,
		BloomTargetFPR:          0.01,
		SessionTimeout:          60 * time.Second,
		MessageTimeout:          10 * time.Second,
		WasmCallbackTimeout:     5 * time.Second,
		MaxMergeFailureFraction: 0.10,
		SnapshotPageSize:        256,
		DeltaBufferCapacity:     4096,
		DivergenceRatioBloomFilter:     0.10,
		DivergenceRatioSubtreePrefetch: 0.20,
	}
}

// MainnetParameters returns parameters tuned for a production,
// high-peer-count deployment: tighter timeouts are unsafe across wide
// area links, so it widens them relative to the default instead of
// tightening.
func MainnetParameters() Parameters {
	p := DefaultParameters()
	p.SessionTimeout = 120 * time.Second
	p.MessageTimeout = 20 * time.Second
	p.SnapshotPageSize = 512
	p.DeltaBufferCapacity = 16384
	return p
}

// LocalParameters returns parameters tuned for single-machine or CI
// testing, where low latency lets every timeout shrink.
func LocalParameters() Parameters {
	p := DefaultParameters()
	p.SessionTimeout = 5 * time.Second
	p.MessageTimeout = 1 * time.Second
	p.WasmCallbackTimeout = 500 * time.Millisecond
	p.DeltaBufferCapacity = 256
	return p
}

// Validate reports the first invariant violation found in p, or nil if
// p is usable.
func (p Parameters) Validate() error {
	if p.DeltaSyncThreshold < 1 {
		return ErrInvalidDeltaThreshold
	}
	if p.BloomTargetFPR <= 0 || p.BloomTargetFPR >= 1 {
		return ErrInvalidBloomFPR
	}
	if p.MessageTimeout < time.Millisecond {
		return ErrMessageTimeoutTooLow
	}
	if p.SessionTimeout < p.MessageTimeout {
		return ErrSessionTimeoutTooLow
	}
	if p.WasmCallbackTimeout < time.Millisecond {
		return ErrWasmTimeoutTooLow
	}
	if p.MaxMergeFailureFraction < 0 || p.MaxMergeFailureFraction > 1 {
		return ErrInvalidFailureFraction
	}
	if p.SnapshotPageSize < 1 {
		return ErrInvalidSnapshotPageSize
	}
	if p.DeltaBufferCapacity < 1 {
		return ErrInvalidBufferCapacity
	}
	if p.DivergenceRatioBloomFilter < 0 ||
		p.DivergenceRatioBloomFilter >= p.DivergenceRatioSubtreePrefetch ||
		p.DivergenceRatioSubtreePrefetch > 1 {
		return ErrInvalidDivergenceRatios
	}
	return nil
}
