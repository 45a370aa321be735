// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// SnapshotRequest asks for a full state transfer, only valid when the
// requester's own entity index is empty. Compressed is carried on the
// wire only; no code in this module compresses SnapshotPage payloads,
// whatever its value.
type SnapshotRequest struct {
	Compressed bool
}

func (SnapshotRequest) Tag() Tag { return TagSnapshotRequest }

func (r SnapshotRequest) Encode() []byte {
	p := wrappers.NewPacker(1)
	p.PackBool(r.Compressed)
	return p.Bytes
}

func DecodeSnapshotRequest(b []byte) (SnapshotRequest, error) {
	u := wrappers.NewUnpacker(b)
	compressed := u.UnpackBool()
	if u.Err != nil || !u.Done() {
		return SnapshotRequest{}, wrappers.ErrShortBuffer
	}
	return SnapshotRequest{Compressed: compressed}, nil
}

// SnapshotEntity is one full entity transferred by a snapshot page.
type SnapshotEntity struct {
	ID       model.EntityId
	Value    []byte
	Metadata model.Metadata
}

func packSnapshotEntity(p *wrappers.Packer, e SnapshotEntity) {
	p.PackFixedBytes(e.ID.Bytes())
	p.PackBytes(e.Value)
	packMetadata(p, e.Metadata)
}

func unpackSnapshotEntity(u *wrappers.Unpacker) SnapshotEntity {
	idBytes := u.UnpackFixedBytes(32)
	value := u.UnpackBytes()
	md := unpackMetadata(u)
	if u.Err != nil {
		return SnapshotEntity{}
	}
	return SnapshotEntity{ID: model.EntityIdFromBytes(idBytes), Value: value, Metadata: md}
}

// SnapshotPage is one page of a paginated full-state transfer. Pages
// may arrive out of order over a multiplexed transport; PageNumber
// lets the receiver reassemble and detect gaps before trusting
// SnapshotComplete's root hash.
type SnapshotPage struct {
	PageNumber uint32
	TotalPages uint32
	Entities   []SnapshotEntity
}

func (SnapshotPage) Tag() Tag { return TagSnapshotPage }

func (p2 SnapshotPage) Encode() []byte {
	p := wrappers.NewPacker(8 + 64*len(p2.Entities))
	p.PackUint32(p2.PageNumber)
	p.PackUint32(p2.TotalPages)
	p.PackUint32(uint32(len(p2.Entities)))
	for _, e := range p2.Entities {
		packSnapshotEntity(p, e)
	}
	return p.Bytes
}

func DecodeSnapshotPage(b []byte) (SnapshotPage, error) {
	u := wrappers.NewUnpacker(b)
	pageNum := u.UnpackUint32()
	total := u.UnpackUint32()
	n := u.UnpackUint32()
	if u.Err != nil {
		return SnapshotPage{}, u.Err
	}
	entities := make([]SnapshotEntity, 0, n)
	for i := uint32(0); i < n; i++ {
		entities = append(entities, unpackSnapshotEntity(u))
		if u.Err != nil {
			return SnapshotPage{}, u.Err
		}
	}
	if !u.Done() {
		return SnapshotPage{}, wrappers.ErrShortBuffer
	}
	return SnapshotPage{PageNumber: pageNum, TotalPages: total, Entities: entities}, nil
}

// SnapshotComplete closes out a snapshot transfer with the root hash
// the sender computed over the full entity set, which the receiver
// must recompute and compare before committing.
type SnapshotComplete struct {
	RootHash      model.Hash
	TotalEntities uint64
}

func (SnapshotComplete) Tag() Tag { return TagSnapshotComplete }

func (c SnapshotComplete) Encode() []byte {
	p := wrappers.NewPacker(40)
	p.PackFixedBytes(c.RootHash.Bytes())
	p.PackUint64(c.TotalEntities)
	return p.Bytes
}

func DecodeSnapshotComplete(b []byte) (SnapshotComplete, error) {
	u := wrappers.NewUnpacker(b)
	rootBytes := u.UnpackFixedBytes(32)
	total := u.UnpackUint64()
	if u.Err != nil || !u.Done() {
		return SnapshotComplete{}, wrappers.ErrShortBuffer
	}
	return SnapshotComplete{RootHash: model.HashFromBytes(rootBytes), TotalEntities: total}, nil
}
