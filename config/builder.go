// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"time"
)

// NetworkType selects a preset Parameters value.
type NetworkType string

const (
	MainnetNetwork NetworkType = "mainnet"
	LocalNetwork   NetworkType = "local"
)

// Builder provides a fluent interface for constructing Parameters,
// accumulating the first validation error encountered so callers can
// chain calls and check the error once at Build.
type Builder struct {
	params Parameters
	err    error
}

// NewBuilder creates a new Builder seeded with DefaultParameters.
func NewBuilder() *Builder {
	return &Builder{params: DefaultParameters()}
}

// FromPreset replaces the builder's parameters with a named preset.
func (b *Builder) FromPreset(preset NetworkType) *Builder {
	if b.err != nil {
		return b
	}

	switch preset {
	case MainnetNetwork:
		b.params = MainnetParameters()
	case LocalNetwork:
		b.params = LocalParameters()
	default:
		b.err = fmt.Errorf("config: unknown preset %q", preset)
	}

	return b
}

// WithDeltaSyncThreshold sets the maximum missing-id count the Delta
// strategy will handle before the manager prefers a coarser strategy.
func (b *Builder) WithDeltaSyncThreshold(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("config: delta sync threshold must be >= 1, got %d", n)
		return b
	}
	b.params.DeltaSyncThreshold = n
	return b
}

// WithBloomTargetFPR sets the bloom filter's target false positive
// rate.
func (b *Builder) WithBloomTargetFPR(fpr float64) *Builder {
	if b.err != nil {
		return b
	}
	if fpr <= 0 || fpr >= 1 {
		b.err = fmt.Errorf("config: bloom target FPR must be in (0, 1), got %f", fpr)
		return b
	}
	b.params.BloomTargetFPR = fpr
	return b
}

// WithTimeouts sets the session, per-message, and WASM callback
// timeouts together, since session must dominate message.
func (b *Builder) WithTimeouts(session, message, wasm time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if message < time.Millisecond {
		b.err = fmt.Errorf("config: message timeout must be >= 1ms, got %s", message)
		return b
	}
	if session < message {
		b.err = fmt.Errorf("config: session timeout (%s) must be >= message timeout (%s)", session, message)
		return b
	}
	if wasm < time.Millisecond {
		b.err = fmt.Errorf("config: wasm callback timeout must be >= 1ms, got %s", wasm)
		return b
	}
	b.params.SessionTimeout = session
	b.params.MessageTimeout = message
	b.params.WasmCallbackTimeout = wasm
	return b
}

// WithMaxMergeFailureFraction sets the fraction of entities in a
// session allowed to fail to merge before the session fails outright.
func (b *Builder) WithMaxMergeFailureFraction(frac float64) *Builder {
	if b.err != nil {
		return b
	}
	if frac < 0 || frac > 1 {
		b.err = fmt.Errorf("config: max merge failure fraction must be in [0, 1], got %f", frac)
		return b
	}
	b.params.MaxMergeFailureFraction = frac
	return b
}

// WithSnapshotPageSize sets the number of entities sent per page during
// a Snapshot transfer.
func (b *Builder) WithSnapshotPageSize(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("config: snapshot page size must be >= 1, got %d", n)
		return b
	}
	b.params.SnapshotPageSize = n
	return b
}

// WithDeltaBufferCapacity sets the bounded FIFO capacity of the per-peer
// delta buffer.
func (b *Builder) WithDeltaBufferCapacity(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("config: delta buffer capacity must be >= 1, got %d", n)
		return b
	}
	b.params.DeltaBufferCapacity = n
	return b
}

// WithDivergenceRatios sets the fractional-difference breakpoints used
// to pick among BloomFilter, SubtreePrefetch, LevelWise, and
// HashComparison once a session has fallen past the Delta threshold.
func (b *Builder) WithDivergenceRatios(bloomFilter, subtreePrefetch float64) *Builder {
	if b.err != nil {
		return b
	}
	if bloomFilter < 0 || bloomFilter >= subtreePrefetch || subtreePrefetch > 1 {
		b.err = fmt.Errorf("config: divergence ratios must satisfy 0 <= bloomFilter(%f) < subtreePrefetch(%f) <= 1", bloomFilter, subtreePrefetch)
		return b
	}
	b.params.DivergenceRatioBloomFilter = bloomFilter
	b.params.DivergenceRatioSubtreePrefetch = subtreePrefetch
	return b
}

// Build validates and returns the final Parameters.
func (b *Builder) Build() (Parameters, error) {
	if b.err != nil {
		return Parameters{}, b.err
	}
	if err := b.params.Validate(); err != nil {
		return Parameters{}, err
	}
	return b.params, nil
}
