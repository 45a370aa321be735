// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"sort"

	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// RgaElement is one element of a replicated growable array: a value
// inserted at a causal position identified by its origin (the HLC and
// node that created it), tombstoned rather than removed outright so
// concurrent inserts relative to a deleted element remain orderable.
type RgaElement struct {
	OriginHLC  model.HybridTimestamp
	OriginNode model.NodeID
	Value      []byte
	Tombstoned bool
}

// id returns the element's identity for merge purposes: the
// (origin HLC, origin node) pair is unique per insert by construction
// (the HLC is strictly increasing per node), so no separate element id
// field is needed.
func (e RgaElement) id() (model.HybridTimestamp, model.NodeID) { return e.OriginHLC, e.OriginNode }

// EncodeRga returns the canonical encoding of elements in sequence
// order: ordered by (OriginHLC, OriginNode), which gives every replica
// the same total order over concurrently inserted elements.
func EncodeRga(elements []RgaElement) []byte {
	sorted := append([]RgaElement(nil), elements...)
	sortRga(sorted)

	p := wrappers.NewPacker(4 + len(sorted)*56)
	p.PackUint32(uint32(len(sorted)))
	for _, e := range sorted {
		p.PackUint64(e.OriginHLC.PhysicalMS)
		p.PackUint32(e.OriginHLC.Counter)
		p.PackFixedBytes(e.OriginHLC.NodeID.Bytes())
		p.PackFixedBytes(e.OriginNode.Bytes())
		p.PackBool(e.Tombstoned)
		p.PackBytes(e.Value)
	}
	return p.Bytes
}

func sortRga(elements []RgaElement) {
	sort.Slice(elements, func(i, j int) bool {
		if c := elements[i].OriginHLC.Compare(elements[j].OriginHLC); c != 0 {
			return c < 0
		}
		return elements[i].OriginNode.Compare(elements[j].OriginNode) < 0
	})
}

// DecodeRga parses b as produced by EncodeRga.
func DecodeRga(b []byte) ([]RgaElement, error) {
	if len(b) == 0 {
		return nil, nil
	}

	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	elements := make([]RgaElement, 0, n)
	for i := uint32(0); i < n && u.Err == nil; i++ {
		physMS := u.UnpackUint64()
		counter := u.UnpackUint32()
		hlcNode := u.UnpackFixedBytes(32)
		originNode := u.UnpackFixedBytes(32)
		tombstoned := u.UnpackBool()
		value := u.UnpackBytes()
		if u.Err != nil {
			break
		}
		elements = append(elements, RgaElement{
			OriginHLC:  model.HybridTimestamp{PhysicalMS: physMS, Counter: counter, NodeID: model.NodeIDFromBytes(hlcNode)},
			OriginNode: model.NodeIDFromBytes(originNode),
			Value:      value,
			Tombstoned: tombstoned,
		})
	}
	if u.Err != nil || !u.Done() {
		return nil, ErrMalformedValue
	}
	return elements, nil
}

// mergeRga unions elements by (origin HLC, origin node); an element
// tombstoned by either side stays tombstoned (deletes are permanent),
// and the result is re-sorted into the shared causal order.
func mergeRga(local, remote []byte) ([]byte, error) {
	localElems, err := DecodeRga(local)
	if err != nil {
		return nil, err
	}
	remoteElems, err := DecodeRga(remote)
	if err != nil {
		return nil, err
	}

	type key struct {
		hlc  model.HybridTimestamp
		node model.NodeID
	}
	byID := make(map[key]RgaElement, len(localElems)+len(remoteElems))
	for _, e := range localElems {
		hlc, node := e.id()
		byID[key{hlc, node}] = e
	}
	for _, e := range remoteElems {
		hlc, node := e.id()
		k := key{hlc, node}
		existing, ok := byID[k]
		if !ok {
			byID[k] = e
			continue
		}
		existing.Tombstoned = existing.Tombstoned || e.Tombstoned
		byID[k] = existing
	}

	out := make([]RgaElement, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	return EncodeRga(out), nil
}
