// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec implements the canonical, deterministic byte encoding
// that delta and entity content hashes are computed over: a delta's id
// is the SHA-256 of its canonical serialization with the id field
// itself excluded. It is intentionally distinct from package wire,
// which frames and encodes
// messages for the network: codec only ever needs to be byte-stable
// across processes and Go versions, not forward-compatible across
// protocol versions.
package codec

import (
	"crypto/sha256"

	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// CurrentVersion is the canonical encoding version. Bumping it is a
// breaking change to every derived id in the system, so in practice it
// never changes after the protocol ships; it exists so a future
// migration has a version byte to dispatch on rather than guessing.
const CurrentVersion uint16 = 0

// CanonicalDeltaBytes returns the deterministic encoding of delta with
// its ID field excluded, suitable for hashing into a DeltaId. Field
// order is fixed (parents, hlc, nonce, author, root_hash_after_apply,
// payload, events) so two nodes running the same code always produce
// byte-identical output for the same logical delta.
func CanonicalDeltaBytes(d model.CausalDelta) []byte {
	p := wrappers.NewPacker(64 + len(d.Payload))
	p.PackUint32(uint32(CurrentVersion))

	p.PackUint32(uint32(len(d.Parents)))
	for _, parent := range d.Parents {
		p.PackFixedBytes(parent.Bytes())
	}

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

	return p.Bytes
}

// DeriveDeltaID computes the DeltaId of d as SHA-256 of its canonical
// encoding. The ID field of d is never consulted.
func DeriveDeltaID(d model.CausalDelta) model.DeltaId {
	sum := sha256.Sum256(CanonicalDeltaBytes(d))
	return model.DeltaId(sum)
}

// CanonicalMetadataBytes returns the deterministic encoding of entity
// metadata, used for equality checks in tests. Merkle leaf hashing
// covers only an entity's id and value, not this encoding.
func CanonicalMetadataBytes(m model.Metadata) []byte {
	p := wrappers.NewPacker(48)
	p.PackUint64(m.CreatedAt)
	p.PackUint64(m.UpdatedAt.PhysicalMS)
	p.PackUint32(m.UpdatedAt.Counter)
	p.PackFixedBytes(m.UpdatedAt.NodeID.Bytes())
	p.PackByte(m.StorageType)
	if m.CrdtType == nil {
		p.PackBool(false)
	} else {
		p.PackBool(true)
		p.PackByte(byte(m.CrdtType.Kind))
		p.PackString(m.CrdtType.TypeName)
	}
	return p.Bytes
}
