// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dag

import (
	"time"

	"github.com/luxfi/hybridsync/model"
)

// RetentionPolicy decides whether an applied, non-head delta may be
// garbage collected. The DAG itself never decides this, since the GC
// horizon is deployment-specific, so this is a pluggable decision
// rather than a hardcoded "retain forever" or "retain N days" choice
// baked into the DAG type.
type RetentionPolicy interface {
	// Retain reports whether delta must be kept. appliedAt is the wall
	// clock time the DAG applied it (tracked separately from the
	// delta's own HLC, which reflects when the *author* created it,
	// not when this node learned about it).
	Retain(delta model.CausalDelta, appliedAt time.Time, now time.Time) bool
}

// AgeBasedRetentionPolicy retains every delta applied within MaxAge of
// now, and discards anything older (that is not a head).
type AgeBasedRetentionPolicy struct {
	MaxAge time.Duration
}

func (p AgeBasedRetentionPolicy) Retain(_ model.CausalDelta, appliedAt, now time.Time) bool {
	return now.Sub(appliedAt) <= p.MaxAge
}

// RetainForever is the conservative default: nothing is ever collected.
// Using it explicitly documents the choice rather than leaving GC
// silently absent.
type RetainForever struct{}

func (RetainForever) Retain(model.CausalDelta, time.Time, time.Time) bool { return true }

// CollectGarbage removes applied deltas that policy says may go,
// skipping every current head (a head may still be needed as a future
// delta's declared parent) and returns the number removed. appliedAt
// looks up each delta's DAG-applied time; a delta with no recorded
// time is treated as retained (never collected) since pruning without
// knowing its age would silently violate causality if that delta
// turned out to still be needed.
func (d *DAG) CollectGarbage(policy RetentionPolicy, appliedAt map[model.DeltaId]time.Time, now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	var toRemove []model.DeltaId
	d.applied.Iterate(func(id model.DeltaId, delta model.CausalDelta) bool {
		if _, isHead := d.heads[id]; isHead {
			return true
		}
		at, ok := appliedAt[id]
		if !ok {
			return true
		}
		if !policy.Retain(delta, at, now) {
			toRemove = append(toRemove, id)
		}
		return true
	})

	for _, id := range toRemove {
		d.applied.Delete(id)
	}
	return len(toRemove)
}
