// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"sort"

	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// MapEntry is one key's value in an UnorderedMap CRDT. Per-key merge is
// LWW by HLC; recursion bottoms out here, at a register, since a key's
// value carries no further CrdtType of its own in this wire
// representation; a key whose value should itself be a richer CRDT is
// modeled as a nested entity with its own Metadata instead of as a
// MapEntry.
type MapEntry struct {
	Key   string
	Value []byte
	HLC   model.HybridTimestamp
}

// EncodeUnorderedMap returns the canonical encoding of entries, sorted
// by key.
func EncodeUnorderedMap(entries []MapEntry) []byte {
	sorted := append([]MapEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	p := wrappers.NewPacker(4 + len(sorted)*48)
	p.PackUint32(uint32(len(sorted)))
	for _, e := range sorted {
		p.PackString(e.Key)
		p.PackUint64(e.HLC.PhysicalMS)
		p.PackUint32(e.HLC.Counter)
		p.PackFixedBytes(e.HLC.NodeID.Bytes())
		p.PackBytes(e.Value)
	}
	return p.Bytes
}

// DecodeUnorderedMap parses b as produced by EncodeUnorderedMap.
func DecodeUnorderedMap(b []byte) ([]MapEntry, error) {
	if len(b) == 0 {
		return nil, nil
	}

	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	entries := make([]MapEntry, 0, n)
	for i := uint32(0); i < n && u.Err == nil; i++ {
		key := u.UnpackString()
		physMS := u.UnpackUint64()
		counter := u.UnpackUint32()
		nodeBytes := u.UnpackFixedBytes(32)
		value := u.UnpackBytes()
		if u.Err != nil {
			break
		}
		entries = append(entries, MapEntry{
			Key:   key,
			Value: value,
			HLC:   model.HybridTimestamp{PhysicalMS: physMS, Counter: counter, NodeID: model.NodeIDFromBytes(nodeBytes)},
		})
	}
	if u.Err != nil || !u.Done() {
		return nil, ErrMalformedValue
	}
	return entries, nil
}

// mergeUnorderedMap merges per key: a key present on only one side
// passes through unchanged, a key present on both sides resolves by
// LWW-by-HLC.
func mergeUnorderedMap(local, remote []byte) ([]byte, error) {
	localEntries, err := DecodeUnorderedMap(local)
	if err != nil {
		return nil, err
	}
	remoteEntries, err := DecodeUnorderedMap(remote)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]MapEntry, len(localEntries)+len(remoteEntries))
	for _, e := range localEntries {
		byKey[e.Key] = e
	}
	for _, e := range remoteEntries {
		existing, ok := byKey[e.Key]
		if !ok {
			byKey[e.Key] = e
			continue
		}
		merged, err := mergeLwwRegister(existing.Value, e.Value, existing.HLC, e.HLC)
		if err != nil {
			return nil, err
		}
		byKey[e.Key] = MapEntry{Key: e.Key, Value: merged, HLC: existing.HLC.Max(e.HLC)}
	}

	out := make([]MapEntry, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	return EncodeUnorderedMap(out), nil
}
