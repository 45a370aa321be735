// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package model holds the shared data types of the hybrid state
// synchronization protocol: identifiers, the hybrid logical clock
// tuple, CRDT type tags, entity/delta metadata, and the causal delta
// envelope. Nothing here depends on the DAG, Merkle tree, or CRDT
// dispatch packages, so they can all depend on model instead of on
// each other.
package model

import (
	"bytes"

	"github.com/luxfi/hybridsync/utils/formatting"
)

// idLen is the fixed width of every opaque identifier in the protocol:
// entity ids, delta ids, node ids, and content hashes are all 32-byte
// SHA-256 digests or digest-shaped values.
const idLen = 32

// EntityId identifies an entity deterministically derived by the
// application: SHA-256(parent_id || field_name) or SHA-256(field_name)
// at the root. Never produced from randomness.
type EntityId [idLen]byte

// DeltaId identifies a CausalDelta; it is SHA-256(canonical_serialize(delta
// without id)).
type DeltaId [idLen]byte

// NodeID identifies a peer/replica.
type NodeID [idLen]byte

// Hash is a generic 32-byte content hash, used for Merkle node hashes
// and the root hash exchanged during handshake/verification.
type Hash [idLen]byte

// ZeroHash is the canonical empty Merkle tree root.
var ZeroHash = Hash{}

func (id EntityId) Bytes() []byte { return id[:] }
func (id DeltaId) Bytes() []byte  { return id[:] }
func (id NodeID) Bytes() []byte   { return id[:] }
func (h Hash) Bytes() []byte      { return h[:] }

// String formats an id as unprefixed hex; encoding never fails for a
// fixed-width byte slice, so the error is always nil here.
func (id EntityId) String() string { s, _ := formatting.Encode(formatting.HexNC, id[:]); return s }
func (id DeltaId) String() string  { s, _ := formatting.Encode(formatting.HexNC, id[:]); return s }
func (id NodeID) String() string   { s, _ := formatting.Encode(formatting.HexNC, id[:]); return s }
func (h Hash) String() string      { s, _ := formatting.Encode(formatting.HexNC, h[:]); return s }

// Compare gives the lexicographic total order used everywhere an
// opaque id needs one (Merkle leaf sort, DAG head sets, LWW tie-break).
func (id EntityId) Compare(other EntityId) int { return bytes.Compare(id[:], other[:]) }
func (id DeltaId) Compare(other DeltaId) int   { return bytes.Compare(id[:], other[:]) }
func (id NodeID) Compare(other NodeID) int     { return bytes.Compare(id[:], other[:]) }
func (h Hash) Compare(other Hash) int          { return bytes.Compare(h[:], other[:]) }

// Less reports whether id sorts strictly before other; convenience for
// sort.Slice callers (Merkle leaf pairing sorts by EntityId).
func (id EntityId) Less(other EntityId) bool { return id.Compare(other) < 0 }
func (h Hash) Less(other Hash) bool          { return h.Compare(other) < 0 }

// EntityIdFromBytes copies exactly 32 bytes into a new EntityId. It
// panics on a length mismatch: callers own validating untrusted input
// length before this point (the wire codec does so explicitly).
func EntityIdFromBytes(b []byte) EntityId { var id EntityId; mustCopy32(id[:], b); return id }
func DeltaIdFromBytes(b []byte) DeltaId   { var id DeltaId; mustCopy32(id[:], b); return id }
func NodeIDFromBytes(b []byte) NodeID     { var id NodeID; mustCopy32(id[:], b); return id }
func HashFromBytes(b []byte) Hash         { var h Hash; mustCopy32(h[:], b); return h }

func mustCopy32(dst, src []byte) {
	if len(src) != idLen {
		panic("model: expected 32-byte identifier")
	}
	copy(dst, src)
}
