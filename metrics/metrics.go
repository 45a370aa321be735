// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/hybridsync/utils/wrappers"
)

// Sink is the metrics contract the sync core consumes. Every counter
// a session or strategy needs to report is a field here so call sites
// reference it by name instead of re-deriving a prometheus metric name
// ad hoc. Built on the Counter/Gauge/Averager primitives in metric.go,
// which wrap prometheus rather than exposing prometheus types directly
// to call sites.
type Sink struct {
	Registry Registry

	// VerificationFailures counts snapshot strategy verify-before-write
	// failures.
	VerificationFailures Counter // sync_verification_failures

	// SnapshotBlocked counts snapshot strategy refusals on a non-empty
	// root — the downgrade-to-HashComparison safety path — plus snapshot
	// transfers that failed with any error other than a verification
	// failure, which take the same downgrade.
	SnapshotBlocked Counter // sync_snapshot_blocked

	// DeltaEscalated counts delta sync responses that referenced an
	// unresolved parent, forcing a downgrade to HashComparison.
	DeltaEscalated Counter // sync_delta_escalated_total

	// SessionsActive is the current count of live sync sessions across
	// all peers.
	SessionsActive Gauge // sync_sessions_active

	// SessionDuration observes completed session wall-clock durations,
	// in seconds.
	SessionDuration Averager // sync_session_duration_seconds

	// EntitiesMerged counts successful CRDT merges applied to the local
	// index.
	EntitiesMerged Counter // sync_entities_merged_total

	// EntitiesFailed counts merges rejected by the dispatch table or a
	// WASM callback.
	EntitiesFailed Counter // sync_entities_failed_total

	// BloomFalsePositiveRate observes the estimated false-positive rate
	// of bloom filter strategy exchanges, derived from filter
	// parameters at construction time.
	BloomFalsePositiveRate Averager // sync_bloom_false_positive_estimate
}

// NewSink constructs every named metric through a Registry built on
// reg. Any individual registration failure is accumulated rather than
// returned, preferring a best-effort, partially-wired Sink over
// refusing to start a node because one collector name collided.
func NewSink(reg prometheus.Registerer) (*Sink, error) {
	errs := &wrappers.Errs{}
	registry := NewRegistry(reg)

	s := &Sink{
		Registry:               registry,
		VerificationFailures:   NewCounterWithErrs(registry, "sync_verification_failures", "count of snapshot verify-before-write failures", errs),
		SnapshotBlocked:        NewCounterWithErrs(registry, "sync_snapshot_blocked", "count of snapshot strategy refusals downgraded to hash comparison", errs),
		DeltaEscalated:         NewCounterWithErrs(registry, "sync_delta_escalated_total", "count of delta sync responses downgraded to hash comparison on an unresolved parent", errs),
		SessionsActive:         NewGaugeWithErrs(registry, "sync_sessions_active", "current count of live sync sessions", errs),
		SessionDuration:        NewAveragerFromRegistry(registry, "sync_session_duration_seconds", "sync session duration in seconds", errs),
		EntitiesMerged:         NewCounterWithErrs(registry, "sync_entities_merged_total", "count of successful CRDT merges applied locally", errs),
		EntitiesFailed:         NewCounterWithErrs(registry, "sync_entities_failed_total", "count of merges rejected by dispatch or a WASM callback", errs),
		BloomFalsePositiveRate: NewAveragerFromRegistry(registry, "sync_bloom_false_positive_estimate", "bloom filter estimated false positive rate", errs),
	}

	return s, errs.Err()
}
