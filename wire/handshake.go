// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// SyncHandshake opens a sync session: the initiator's view of its own
// state, offered so the responder can pick a protocol without a round
// trip just to exchange root hashes.
type SyncHandshake struct {
	Version            uint32
	RootHash           model.Hash
	EntityCount        uint64
	MaxDepth           uint32
	DagHeads           []model.DeltaId
	HasState           bool
	SupportedProtocols []ProtocolTag
}

func (SyncHandshake) Tag() Tag { return TagSyncHandshake }

func (h SyncHandshake) Encode() []byte {
	p := wrappers.NewPacker(64 + 32*len(h.DagHeads))
	p.PackUint32(h.Version)
	p.PackFixedBytes(h.RootHash.Bytes())
	p.PackUint64(h.EntityCount)
	p.PackUint32(h.MaxDepth)
	packDeltaIDs(p, h.DagHeads)
	p.PackBool(h.HasState)
	p.PackUint32(uint32(len(h.SupportedProtocols)))
	for _, proto := range h.SupportedProtocols {
		p.PackByte(byte(proto))
	}
	return p.Bytes
}

func DecodeSyncHandshake(b []byte) (SyncHandshake, error) {
	u := wrappers.NewUnpacker(b)
	var h SyncHandshake
	h.Version = u.UnpackUint32()
	rootBytes := u.UnpackFixedBytes(32)
	h.EntityCount = u.UnpackUint64()
	h.MaxDepth = u.UnpackUint32()
	h.DagHeads = unpackDeltaIDs(u)
	h.HasState = u.UnpackBool()
	n := u.UnpackUint32()
	if u.Err != nil {
		return SyncHandshake{}, u.Err
	}
	h.RootHash = model.HashFromBytes(rootBytes)
	h.SupportedProtocols = make([]ProtocolTag, 0, n)
	for i := uint32(0); i < n; i++ {
		h.SupportedProtocols = append(h.SupportedProtocols, ProtocolTag(u.UnpackByte()))
	}
	if u.Err != nil || !u.Done() {
		return SyncHandshake{}, wrappers.ErrShortBuffer
	}
	return h, nil
}

// Capabilities are the responder's negotiated limits for the session.
type Capabilities struct {
	SupportsCompression bool
	MaxBatchSize        uint32
	SupportedProtocols  []ProtocolTag
}

// SyncHandshakeResponse answers a SyncHandshake with the chosen
// protocol — selection runs on the responder side, over the
// initiator's advertised state plus its own.
type SyncHandshakeResponse struct {
	SelectedProtocol ProtocolTag
	RootHash         model.Hash
	EntityCount      uint64
	Capabilities     Capabilities
}

func (SyncHandshakeResponse) Tag() Tag { return TagSyncHandshakeResponse }

func (r SyncHandshakeResponse) Encode() []byte {
	p := wrappers.NewPacker(48)
	p.PackByte(byte(r.SelectedProtocol))
	p.PackFixedBytes(r.RootHash.Bytes())
	p.PackUint64(r.EntityCount)
	p.PackBool(r.Capabilities.SupportsCompression)
	p.PackUint32(r.Capabilities.MaxBatchSize)
	p.PackUint32(uint32(len(r.Capabilities.SupportedProtocols)))
	for _, proto := range r.Capabilities.SupportedProtocols {
		p.PackByte(byte(proto))
	}
	return p.Bytes
}

func DecodeSyncHandshakeResponse(b []byte) (SyncHandshakeResponse, error) {
	u := wrappers.NewUnpacker(b)
	var r SyncHandshakeResponse
	r.SelectedProtocol = ProtocolTag(u.UnpackByte())
	rootBytes := u.UnpackFixedBytes(32)
	r.EntityCount = u.UnpackUint64()
	r.Capabilities.SupportsCompression = u.UnpackBool()
	r.Capabilities.MaxBatchSize = u.UnpackUint32()
	n := u.UnpackUint32()
	if u.Err != nil {
		return SyncHandshakeResponse{}, u.Err
	}
	r.RootHash = model.HashFromBytes(rootBytes)
	r.Capabilities.SupportedProtocols = make([]ProtocolTag, 0, n)
	for i := uint32(0); i < n; i++ {
		r.Capabilities.SupportedProtocols = append(r.Capabilities.SupportedProtocols, ProtocolTag(u.UnpackByte()))
	}
	if u.Err != nil || !u.Done() {
		return SyncHandshakeResponse{}, wrappers.ErrShortBuffer
	}
	return r, nil
}
