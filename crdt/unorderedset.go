// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"encoding/hex"
	"sort"

	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// SetElement is one value's add/remove state in an add-wins set. An
// element with HasAdd == false has never been observed added by this
// replica's state.
type SetElement struct {
	Value     []byte
	HasAdd    bool
	AddedAt   model.HybridTimestamp
	HasRemove bool
	RemovedAt model.HybridTimestamp
}

// Present reports whether e is currently a set member: added, and
// either never removed or re-added at-or-after the latest removal
// (add-wins on an exact timestamp tie).
func (e SetElement) Present() bool {
	if !e.HasAdd {
		return false
	}
	if !e.HasRemove {
		return true
	}
	return e.AddedAt.Compare(e.RemovedAt) >= 0
}

// EncodeSet returns the canonical encoding of elements, sorted by value
// bytes.
func EncodeSet(elements []SetElement) []byte {
	sorted := append([]SetElement(nil), elements...)
	sort.Slice(sorted, func(i, j int) bool {
		return hex.EncodeToString(sorted[i].Value) < hex.EncodeToString(sorted[j].Value)
	})

	p := wrappers.NewPacker(4 + len(sorted)*64)
	p.PackUint32(uint32(len(sorted)))
	for _, e := range sorted {
		p.PackBytes(e.Value)
		p.PackBool(e.HasAdd)
		p.PackUint64(e.AddedAt.PhysicalMS)
		p.PackUint32(e.AddedAt.Counter)
		p.PackFixedBytes(e.AddedAt.NodeID.Bytes())
		p.PackBool(e.HasRemove)
		p.PackUint64(e.RemovedAt.PhysicalMS)
		p.PackUint32(e.RemovedAt.Counter)
		p.PackFixedBytes(e.RemovedAt.NodeID.Bytes())
	}
	return p.Bytes
}

// DecodeSet parses b as produced by EncodeSet.
func DecodeSet(b []byte) ([]SetElement, error) {
	if len(b) == 0 {
		return nil, nil
	}

	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	elements := make([]SetElement, 0, n)
	for i := uint32(0); i < n && u.Err == nil; i++ {
		value := u.UnpackBytes()
		hasAdd := u.UnpackBool()
		addedMS := u.UnpackUint64()
		addedCtr := u.UnpackUint32()
		addedNode := u.UnpackFixedBytes(32)
		hasRemove := u.UnpackBool()
		removedMS := u.UnpackUint64()
		removedCtr := u.UnpackUint32()
		removedNode := u.UnpackFixedBytes(32)
		if u.Err != nil {
			break
		}
		elements = append(elements, SetElement{
			Value:     value,
			HasAdd:    hasAdd,
			AddedAt:   model.HybridTimestamp{PhysicalMS: addedMS, Counter: addedCtr, NodeID: model.NodeIDFromBytes(addedNode)},
			HasRemove: hasRemove,
			RemovedAt: model.HybridTimestamp{PhysicalMS: removedMS, Counter: removedCtr, NodeID: model.NodeIDFromBytes(removedNode)},
		})
	}
	if u.Err != nil || !u.Done() {
		return nil, ErrMalformedValue
	}
	return elements, nil
}

// mergeUnorderedSet implements add-wins merge with tombstones: per
// value, the add and remove timestamps each take the tuple-max of the
// two sides, and presence is recomputed from the merged timestamps.
func mergeUnorderedSet(local, remote []byte) ([]byte, error) {
	localElems, err := DecodeSet(local)
	if err != nil {
		return nil, err
	}
	remoteElems, err := DecodeSet(remote)
	if err != nil {
		return nil, err
	}

	byValue := make(map[string]SetElement, len(localElems)+len(remoteElems))
	for _, e := range localElems {
		byValue[string(e.Value)] = e
	}
	for _, e := range remoteElems {
		existing, ok := byValue[string(e.Value)]
		if !ok {
			byValue[string(e.Value)] = e
			continue
		}
		byValue[string(e.Value)] = mergeSetElement(existing, e)
	}

	out := make([]SetElement, 0, len(byValue))
	for _, e := range byValue {
		out = append(out, e)
	}
	return EncodeSet(out), nil
}

func mergeSetElement(a, b SetElement) SetElement {
	out := SetElement{Value: a.Value}

	out.HasAdd = a.HasAdd || b.HasAdd
	switch {
	case a.HasAdd && b.HasAdd:
		out.AddedAt = a.AddedAt.Max(b.AddedAt)
	case a.HasAdd:
		out.AddedAt = a.AddedAt
	case b.HasAdd:
		out.AddedAt = b.AddedAt
	}

	out.HasRemove = a.HasRemove || b.HasRemove
	switch {
	case a.HasRemove && b.HasRemove:
		out.RemovedAt = a.RemovedAt.Max(b.RemovedAt)
	case a.HasRemove:
		out.RemovedAt = a.RemovedAt
	case b.HasRemove:
		out.RemovedAt = b.RemovedAt
	}

	return out
}
