// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"sort"

	"github.com/luxfi/hybridsync/model"
	safemath "github.com/luxfi/hybridsync/utils/math"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// CounterEntry is one replica's contribution to a G-counter: its
// monotonically increasing local increment total.
type CounterEntry struct {
	Node  model.NodeID
	Count uint64
}

// EncodeCounter returns the canonical little-endian encoding of
// entries, sorted by node id so identical counter states always encode
// identically.
func EncodeCounter(entries []CounterEntry) []byte {
	sorted := append([]CounterEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Node.Compare(sorted[j].Node) < 0 })

	p := wrappers.NewPacker(4 + len(sorted)*40)
	p.PackUint32(uint32(len(sorted)))
	for _, e := range sorted {
		p.PackFixedBytes(e.Node.Bytes())
		p.PackUint64(e.Count)
	}
	return p.Bytes
}

// DecodeCounter parses b as produced by EncodeCounter. A nil or empty b
// decodes to an empty counter.
func DecodeCounter(b []byte) ([]CounterEntry, error) {
	if len(b) == 0 {
		return nil, nil
	}

	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	entries := make([]CounterEntry, 0, n)
	for i := uint32(0); i < n && u.Err == nil; i++ {
		nodeBytes := u.UnpackFixedBytes(32)
		count := u.UnpackUint64()
		if u.Err != nil {
			break
		}
		entries = append(entries, CounterEntry{Node: model.NodeIDFromBytes(nodeBytes), Count: count})
	}
	if u.Err != nil || !u.Done() {
		return nil, ErrMalformedValue
	}
	return entries, nil
}

// CounterValue returns the G-counter's observed total: the sum of
// every replica's per-node count, checked for overflow since a
// maliciously or accidentally huge per-node count must not wrap
// silently into a small, wrong total.
func CounterValue(entries []CounterEntry) (uint64, error) {
	var total uint64
	for _, e := range entries {
		var err error
		total, err = safemath.Add64(total, e.Count)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// mergeCounter implements the G-counter merge rule: per node id, take
// the max of the two sides' counts, then the counter's value is the
// sum over all nodes.
func mergeCounter(local, remote []byte) ([]byte, error) {
	localEntries, err := DecodeCounter(local)
	if err != nil {
		return nil, err
	}
	remoteEntries, err := DecodeCounter(remote)
	if err != nil {
		return nil, err
	}

	merged := make(map[model.NodeID]uint64, len(localEntries)+len(remoteEntries))
	for _, e := range localEntries {
		merged[e.Node] = e.Count
	}
	for _, e := range remoteEntries {
		if e.Count > merged[e.Node] {
			merged[e.Node] = e.Count
		}
	}

	out := make([]CounterEntry, 0, len(merged))
	for node, count := range merged {
		out = append(out, CounterEntry{Node: node, Count: count})
	}
	return EncodeCounter(out), nil
}
