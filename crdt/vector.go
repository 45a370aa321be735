// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"bytes"
	"sort"

	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// VectorElement is one indexed slot of a fixed-shape Vector CRDT,
// merged element-wise by last-write-wins.
type VectorElement struct {
	Index uint32
	Value []byte
	HLC   model.HybridTimestamp
}

// EncodeVector returns the canonical encoding of elements, sorted by
// index.
func EncodeVector(elements []VectorElement) []byte {
	sorted := append([]VectorElement(nil), elements...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	p := wrappers.NewPacker(4 + len(sorted)*48)
	p.PackUint32(uint32(len(sorted)))
	for _, e := range sorted {
		p.PackUint32(e.Index)
		p.PackUint64(e.HLC.PhysicalMS)
		p.PackUint32(e.HLC.Counter)
		p.PackFixedBytes(e.HLC.NodeID.Bytes())
		p.PackBytes(e.Value)
	}
	return p.Bytes
}

// DecodeVector parses b as produced by EncodeVector.
func DecodeVector(b []byte) ([]VectorElement, error) {
	if len(b) == 0 {
		return nil, nil
	}

	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	elements := make([]VectorElement, 0, n)
	for i := uint32(0); i < n && u.Err == nil; i++ {
		idx := u.UnpackUint32()
		physMS := u.UnpackUint64()
		counter := u.UnpackUint32()
		nodeBytes := u.UnpackFixedBytes(32)
		value := u.UnpackBytes()
		if u.Err != nil {
			break
		}
		elements = append(elements, VectorElement{
			Index: idx,
			Value: value,
			HLC:   model.HybridTimestamp{PhysicalMS: physMS, Counter: counter, NodeID: model.NodeIDFromBytes(nodeBytes)},
		})
	}
	if u.Err != nil || !u.Done() {
		return nil, ErrMalformedValue
	}
	return elements, nil
}

// mergeVector implements element-wise LWW: for each index present in
// either side, keep the element with the greater HLC, breaking an
// exact tie by value bytes.
func mergeVector(local, remote []byte) ([]byte, error) {
	localElems, err := DecodeVector(local)
	if err != nil {
		return nil, err
	}
	remoteElems, err := DecodeVector(remote)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[uint32]VectorElement, len(localElems)+len(remoteElems))
	for _, e := range localElems {
		byIndex[e.Index] = e
	}
	for _, e := range remoteElems {
		existing, ok := byIndex[e.Index]
		if !ok {
			byIndex[e.Index] = e
			continue
		}
		byIndex[e.Index] = pickVectorWinner(existing, e)
	}

	out := make([]VectorElement, 0, len(byIndex))
	for _, e := range byIndex {
		out = append(out, e)
	}
	return EncodeVector(out), nil
}

func pickVectorWinner(a, b VectorElement) VectorElement {
	switch a.HLC.Compare(b.HLC) {
	case 1:
		return a
	case -1:
		return b
	default:
		if bytes.Compare(a.Value, b.Value) >= 0 {
			return a
		}
		return b
	}
}
