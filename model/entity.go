// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

// Metadata is persisted alongside every entity: it travels with the
// entity across the wire and survives merges.
type Metadata struct {
	CreatedAt   uint64
	UpdatedAt   HybridTimestamp
	StorageType uint8
	// CrdtType is nil when the application never tagged the entity with
	// a CRDT kind; merge then falls back to LWW-by-updated_at and that
	// fallback must be logged exactly once per (entity, session).
	CrdtType *CrdtType
}

// HasCrdtType reports whether CrdtType was set.
func (m Metadata) HasCrdtType() bool { return m.CrdtType != nil }

// Entity is (id, value, metadata) — the unit the entity index stores
// and the Merkle tree hashes leaves over.
type Entity struct {
	ID       EntityId
	Value    []byte
	Metadata Metadata
}

// Event is an application-visible side effect carried by a CausalDelta.
// The sync core treats events as opaque payload; only their presence in
// the delta's causal position is observable.
type Event struct {
	EntityID EntityId
	Kind     string
	Payload  []byte
}

// CausalDelta is the atomic causal update unit.
type CausalDelta struct {
	ID                 DeltaId
	Parents            []DeltaId
	HLC                HybridTimestamp
	Nonce              [24]byte
	Author             NodeID
	RootHashAfterApply Hash
	Payload            []byte
	Events             []Event
}

// BufferedDelta is a CausalDelta captured by the delta buffer while a
// state-based sync is in flight. It is a type alias, not a distinct
// type: a BufferedDelta and a CausalDelta are interchangeable.
type BufferedDelta = CausalDelta
