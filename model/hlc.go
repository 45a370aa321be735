// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

// HybridTimestamp is (physical_ms, counter, node_id), totally ordered
// lexicographically on that tuple. The hlc package owns producing
// these; this type is the shared wire/storage representation.
type HybridTimestamp struct {
	PhysicalMS uint64
	Counter    uint32
	NodeID     NodeID
}

// Compare returns -1, 0, or 1 comparing t to other under the tuple order.
func (t HybridTimestamp) Compare(other HybridTimestamp) int {
	switch {
	case t.PhysicalMS < other.PhysicalMS:
		return -1
	case t.PhysicalMS > other.PhysicalMS:
		return 1
	}
	switch {
	case t.Counter < other.Counter:
		return -1
	case t.Counter > other.Counter:
		return 1
	}
	return t.NodeID.Compare(other.NodeID)
}

// Less reports whether t sorts strictly before other.
func (t HybridTimestamp) Less(other HybridTimestamp) bool { return t.Compare(other) < 0 }

// Max returns the tuple-greater of t and other.
func (t HybridTimestamp) Max(other HybridTimestamp) HybridTimestamp {
	if t.Less(other) {
		return other
	}
	return t
}
