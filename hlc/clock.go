// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hlc implements the process-wide hybrid logical clock: a
// single encapsulated lock guarding monotonic (physical_ms, counter,
// node_id) timestamps.
package hlc

import (
	"sync"
	"time"

	"github.com/luxfi/hybridsync/model"
)

// nowFunc is overridden in tests to make clock advancement deterministic.
var nowFunc = func() uint64 { return uint64(time.Now().UnixMilli()) }

// Clock produces HybridTimestamps for one node. It has no failure
// mode: Now and Observe can never return an error.
type Clock struct {
	mu     sync.Mutex
	nodeID model.NodeID
	last   model.HybridTimestamp
}

// New returns a Clock for nodeID, initialized so the first Now() call
// reflects wall-clock time with counter 0.
func New(nodeID model.NodeID) *Clock {
	return &Clock{nodeID: nodeID}
}

// Now returns a new HybridTimestamp strictly greater than every
// timestamp previously produced by Now or observed via Observe.
func (c *Clock) Now() model.HybridTimestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	physical := nowFunc()
	if physical <= c.last.PhysicalMS {
		physical = c.last.PhysicalMS
		c.last.Counter++
	} else {
		c.last.Counter = 0
	}
	c.last.PhysicalMS = physical
	c.last.NodeID = c.nodeID
	return c.last
}

// Observe folds a remote HybridTimestamp into the local clock so that
// subsequent Now() calls return a value strictly greater than remote.
func (c *Clock) Observe(remote model.HybridTimestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maxPhysical := nowFunc()
	if c.last.PhysicalMS > maxPhysical {
		maxPhysical = c.last.PhysicalMS
	}
	if remote.PhysicalMS > maxPhysical {
		maxPhysical = remote.PhysicalMS
	}

	localTied := maxPhysical == c.last.PhysicalMS
	remoteTied := maxPhysical == remote.PhysicalMS

	var counter uint32
	switch {
	case localTied && remoteTied:
		if c.last.Counter > remote.Counter {
			counter = c.last.Counter + 1
		} else {
			counter = remote.Counter + 1
		}
	case localTied:
		counter = c.last.Counter + 1
	case remoteTied:
		counter = remote.Counter + 1
	default:
		counter = 0
	}

	c.last = model.HybridTimestamp{
		PhysicalMS: maxPhysical,
		Counter:    counter,
		NodeID:     c.nodeID,
	}
}
