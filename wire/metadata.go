// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// packMetadata/unpackMetadata give every message payload that carries
// entity metadata a single shared encoding, rather than each message
// type hand-rolling its own copy of the Metadata layout.
func packMetadata(p *wrappers.Packer, m model.Metadata) {
	p.PackUint64(m.CreatedAt)
	p.PackUint64(m.UpdatedAt.PhysicalMS)
	p.PackUint32(m.UpdatedAt.Counter)
	p.PackFixedBytes(m.UpdatedAt.NodeID.Bytes())
	p.PackByte(m.StorageType)
	if m.CrdtType == nil {
		p.PackBool(false)
		return
	}
	p.PackBool(true)
	p.PackByte(byte(m.CrdtType.Kind))
	p.PackString(m.CrdtType.TypeName)
}

func unpackMetadata(u *wrappers.Unpacker) model.Metadata {
	var m model.Metadata
	m.CreatedAt = u.UnpackUint64()
	m.UpdatedAt.PhysicalMS = u.UnpackUint64()
	m.UpdatedAt.Counter = u.UnpackUint32()
	nodeBytes := u.UnpackFixedBytes(32)
	m.StorageType = u.UnpackByte()
	hasType := u.UnpackBool()
	if u.Err != nil {
		return model.Metadata{}
	}
	m.UpdatedAt.NodeID = model.NodeIDFromBytes(nodeBytes)
	if !hasType {
		return m
	}
	kind := model.CrdtKind(u.UnpackByte())
	name := u.UnpackString()
	if u.Err != nil {
		return model.Metadata{}
	}
	m.CrdtType = &model.CrdtType{Kind: kind, TypeName: name}
	return m
}

// TreeLeafData carries one entity's full value alongside its metadata,
// the unit a strategy transfers once it decides an entity must move.
type TreeLeafData struct {
	Key      model.EntityId
	Value    []byte
	Metadata model.Metadata
}

func packTreeLeafData(p *wrappers.Packer, l TreeLeafData) {
	p.PackFixedBytes(l.Key.Bytes())
	p.PackBytes(l.Value)
	packMetadata(p, l.Metadata)
}

func unpackTreeLeafData(u *wrappers.Unpacker) TreeLeafData {
	keyBytes := u.UnpackFixedBytes(32)
	value := u.UnpackBytes()
	md := unpackMetadata(u)
	if u.Err != nil {
		return TreeLeafData{}
	}
	return TreeLeafData{Key: model.EntityIdFromBytes(keyBytes), Value: value, Metadata: md}
}

// packOptionalTreeLeafData/unpackOptionalTreeLeafData implement the
// Option<T> wire convention: a one-byte presence tag, followed by the
// value only when the tag is 1.
func packOptionalTreeLeafData(p *wrappers.Packer, l *TreeLeafData) {
	if l == nil {
		p.PackBool(false)
		return
	}
	p.PackBool(true)
	packTreeLeafData(p, *l)
}

func unpackOptionalTreeLeafData(u *wrappers.Unpacker) *TreeLeafData {
	present := u.UnpackBool()
	if u.Err != nil || !present {
		return nil
	}
	l := unpackTreeLeafData(u)
	if u.Err != nil {
		return nil
	}
	return &l
}

func packOptionalUint32(p *wrappers.Packer, v *uint32) {
	if v == nil {
		p.PackBool(false)
		return
	}
	p.PackBool(true)
	p.PackUint32(*v)
}

func unpackOptionalUint32(u *wrappers.Unpacker) *uint32 {
	present := u.UnpackBool()
	if u.Err != nil || !present {
		return nil
	}
	v := u.UnpackUint32()
	if u.Err != nil {
		return nil
	}
	return &v
}

func packHashes(p *wrappers.Packer, hashes []model.Hash) {
	p.PackUint32(uint32(len(hashes)))
	for _, h := range hashes {
		p.PackFixedBytes(h.Bytes())
	}
}

func unpackHashes(u *wrappers.Unpacker) []model.Hash {
	n := u.UnpackUint32()
	if u.Err != nil {
		return nil
	}
	out := make([]model.Hash, 0, n)
	for i := uint32(0); i < n; i++ {
		b := u.UnpackFixedBytes(32)
		if u.Err != nil {
			return nil
		}
		out = append(out, model.HashFromBytes(b))
	}
	return out
}

func packDeltaIDs(p *wrappers.Packer, ids []model.DeltaId) {
	p.PackUint32(uint32(len(ids)))
	for _, id := range ids {
		p.PackFixedBytes(id.Bytes())
	}
}

func unpackDeltaIDs(u *wrappers.Unpacker) []model.DeltaId {
	n := u.UnpackUint32()
	if u.Err != nil {
		return nil
	}
	out := make([]model.DeltaId, 0, n)
	for i := uint32(0); i < n; i++ {
		b := u.UnpackFixedBytes(32)
		if u.Err != nil {
			return nil
		}
		out = append(out, model.DeltaIdFromBytes(b))
	}
	return out
}

// EncodeCausalDelta and DecodeCausalDelta give the wire protocol its
// own read/write pair for CausalDelta, independent of package codec's
// hash-oriented CanonicalDeltaBytes (which never needs to decode,
// only to hash). The field order matches codec's for readability, but
// the two encodings are allowed to diverge across protocol versions.
func EncodeCausalDelta(p *wrappers.Packer, d model.CausalDelta) {
	p.PackFixedBytes(d.ID.Bytes())
	packDeltaIDs(p, d.Parents)
	p.PackUint64(d.HLC.PhysicalMS)
	p.PackUint32(d.HLC.Counter)
	p.PackFixedBytes(d.HLC.NodeID.Bytes())
	p.PackFixedBytes(d.Nonce[:])
	p.PackFixedBytes(d.Author.Bytes())
	p.PackFixedBytes(d.RootHashAfterApply.Bytes())
	p.PackBytes(d.Payload)
	p.PackUint32(uint32(len(d.Events)))
	for _, ev := range d.Events {
		p.PackFixedBytes(ev.EntityID.Bytes())
		p.PackString(ev.Kind)
		p.PackBytes(ev.Payload)
	}
}

func DecodeCausalDelta(u *wrappers.Unpacker) model.CausalDelta {
	var d model.CausalDelta
	idBytes := u.UnpackFixedBytes(32)
	d.Parents = unpackDeltaIDs(u)
	d.HLC.PhysicalMS = u.UnpackUint64()
	d.HLC.Counter = u.UnpackUint32()
	nodeBytes := u.UnpackFixedBytes(32)
	nonceBytes := u.UnpackFixedBytes(24)
	authorBytes := u.UnpackFixedBytes(32)
	rootBytes := u.UnpackFixedBytes(32)
	d.Payload = u.UnpackBytes()
	n := u.UnpackUint32()
	if u.Err != nil {
		return model.CausalDelta{}
	}
	d.ID = model.DeltaIdFromBytes(idBytes)
	d.HLC.NodeID = model.NodeIDFromBytes(nodeBytes)
	copy(d.Nonce[:], nonceBytes)
	d.Author = model.NodeIDFromBytes(authorBytes)
	d.RootHashAfterApply = model.HashFromBytes(rootBytes)
	d.Events = make([]model.Event, 0, n)
	for i := uint32(0); i < n; i++ {
		entBytes := u.UnpackFixedBytes(32)
		kind := u.UnpackString()
		payload := u.UnpackBytes()
		if u.Err != nil {
			return model.CausalDelta{}
		}
		d.Events = append(d.Events, model.Event{
			EntityID: model.EntityIdFromBytes(entBytes),
			Kind:     kind,
			Payload:  payload,
		})
	}
	return d
}
