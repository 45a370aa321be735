// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dag implements the causal delta DAG: a content-addressed
// store of CausalDelta values that enforces causality (a delta is
// never visible as applied before all of its parents are) and hash
// consistency (every stored delta's id is re-derived and checked,
// never trusted from the wire).
package dag

import (
	"fmt"
	"sync"

	"github.com/luxfi/hybridsync/codec"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/linked"
	"github.com/luxfi/hybridsync/utils/set"
)

// State is the outcome of inserting a delta into the DAG.
type State int

const (
	// Applied means the delta's causal history is fully satisfied; it
	// is now part of the DAG's applied set and visible to heads/get.
	Applied State = iota
	// Pending means one or more parents are missing; the delta is held
	// until apply_pending's sweep can satisfy it.
	Pending
	// Rejected means the delta's claimed id does not match its
	// canonical hash and it was never stored.
	Rejected
)

func (s State) String() string {
	switch s {
	case Applied:
		return "applied"
	case Pending:
		return "pending"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ErrHashMismatch is returned by Insert when a delta's ID field does
// not equal the SHA-256 of its canonical encoding.
var ErrHashMismatch = fmt.Errorf("dag: delta id does not match canonical hash")

// DAG is the causal delta store for a single entity namespace. It is
// safe for concurrent use.
type DAG struct {
	mu sync.RWMutex

	// applied holds every delta whose causal history is fully
	// satisfied, in insertion order (deterministic iteration for
	// tests and for the Merkle rebuild path).
	applied *linked.Hashmap[model.DeltaId, model.CausalDelta]

	// pending holds deltas still waiting on at least one parent.
	pending map[model.DeltaId]model.CausalDelta

	// heads is the set of applied delta ids that are not yet a parent
	// of any other applied delta — the DAG's current causal frontier.
	heads set.Set[model.DeltaId]
}

// New returns an empty DAG.
func New() *DAG {
	return &DAG{
		applied: linked.NewHashmap[model.DeltaId, model.CausalDelta](),
		pending: make(map[model.DeltaId]model.CausalDelta),
		heads:   set.NewSet[model.DeltaId](0),
	}
}

// Insert adds delta to the DAG, applying it immediately if every parent
// is already applied, otherwise holding it pending. Re-inserting a
// delta already present (applied or pending) is a no-op that returns
// its current state.
func (d *DAG) Insert(delta model.CausalDelta) (State, error) {
	if delta.ID != codec.DeriveDeltaID(delta) {
		return Rejected, ErrHashMismatch
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.applied.Get(delta.ID); ok {
		return Applied, nil
	}
	if _, ok := d.pending[delta.ID]; ok {
		return Pending, nil
	}

	if d.allParentsApplied(delta.Parents) {
		d.apply(delta)
		d.sweepPending()
		return Applied, nil
	}

	d.pending[delta.ID] = delta
	return Pending, nil
}

// apply moves delta into the applied set and updates heads. Callers
// must hold d.mu.
func (d *DAG) apply(delta model.CausalDelta) {
	d.applied.Put(delta.ID, delta)
	d.heads.Add(delta.ID)
	for _, parent := range delta.Parents {
		d.heads.Remove(parent)
	}
}

// sweepPending repeatedly scans pending for deltas whose parents have
// all become applied, moving them over, until a full pass makes no
// progress.
func (d *DAG) sweepPending() {
	for {
		progressed := false
		for id, delta := range d.pending {
			if !d.allParentsApplied(delta.Parents) {
				continue
			}
			delete(d.pending, id)
			d.apply(delta)
			progressed = true
		}
		if !progressed {
			return
		}
	}
}

func (d *DAG) allParentsApplied(parents []model.DeltaId) bool {
	for _, parent := range parents {
		if _, ok := d.applied.Get(parent); !ok {
			return false
		}
	}
	return true
}

// Contains reports whether id is known to the DAG in any state
// (applied or pending).
func (d *DAG) Contains(id model.DeltaId) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.applied.Get(id); ok {
		return true
	}
	_, ok := d.pending[id]
	return ok
}

// Get returns the applied delta with the given id.
func (d *DAG) Get(id model.DeltaId) (model.CausalDelta, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.applied.Get(id)
}

// Heads returns the current causal frontier: applied delta ids that are
// not a parent of any other applied delta.
func (d *DAG) Heads() []model.DeltaId {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.heads.List()
}

// MissingParentsOf returns the parent ids of a pending delta that are
// not yet applied. The second return is false if id is not pending.
func (d *DAG) MissingParentsOf(id model.DeltaId) ([]model.DeltaId, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	delta, ok := d.pending[id]
	if !ok {
		return nil, false
	}

	var missing []model.DeltaId
	for _, parent := range delta.Parents {
		if _, ok := d.applied.Get(parent); !ok {
			missing = append(missing, parent)
		}
	}
	return missing, true
}

// MissingDeltaIDs returns the full set of parent ids referenced by any
// pending delta that are not yet applied — i.e. every delta this DAG
// knows it needs but does not have, across all pending deltas at once.
// This is what a Delta-strategy sync session asks a peer for: it needs
// no separate head-diffing step because the DAG already tracks exactly
// which ids it is blocked on.
func (d *DAG) MissingDeltaIDs() []model.DeltaId {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[model.DeltaId]bool)
	var missing []model.DeltaId
	for _, delta := range d.pending {
		for _, parent := range delta.Parents {
			if _, ok := d.applied.Get(parent); ok {
				continue
			}
			if _, ok := d.pending[parent]; ok {
				continue
			}
			if !seen[parent] {
				seen[parent] = true
				missing = append(missing, parent)
			}
		}
	}
	return missing
}

// AppliedLen returns the number of applied deltas.
func (d *DAG) AppliedLen() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.applied.Len()
}

// PendingLen returns the number of deltas still waiting on parents.
func (d *DAG) PendingLen() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.pending)
}
