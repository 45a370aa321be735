// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crdt implements the merge dispatch table: a pure function
// from (local, remote, metadata, optional WASM callback) to merged
// bytes, with one merge rule per CrdtKind.
package crdt

import "errors"

var (
	// ErrCustomNoCallback is returned when metadata tags an entity as
	// CrdtCustom but no WASM callback was supplied to Merge.
	ErrCustomNoCallback = errors.New("crdt: custom type requires a wasm callback")

	// ErrMalformedValue is returned when a value's bytes cannot be
	// decoded as the CRDT representation its metadata claims.
	ErrMalformedValue = errors.New("crdt: malformed merge input")

	// ErrTypeMismatch is returned when local and remote metadata both
	// carry a CrdtType but disagree on its Kind, so no single merge
	// rule can be applied to both sides.
	ErrTypeMismatch = errors.New("crdt: local and remote metadata disagree on crdt kind")
)

// Reason classifies why a merge failed. It mirrors the MergeError
// variants a merge can report: a value failed to decode
// (Serialization), the two sides disagree on CRDT kind
// (TypeMismatch), or a CrdtCustom merge's WASM callback was missing,
// errored, or timed out (WasmRequired, WasmFailed, WasmTimeout).
type Reason string

const (
	ReasonSerialization Reason = "serialization"
	ReasonTypeMismatch  Reason = "type_mismatch"
	ReasonWasmRequired  Reason = "wasm_required"
	ReasonWasmFailed    Reason = "wasm_failed"
	ReasonWasmTimeout   Reason = "wasm_timeout"
)

// MergeError wraps a decode, mismatch, or WASM callback failure with
// the entity's CrdtKindName and a Reason, so a session can count
// failures per entity (config.Parameters.MaxMergeFailureFraction) and
// per reason without losing the underlying cause.
type MergeError struct {
	Kind   CrdtKindName
	Reason Reason
	Err    error
}

// CrdtKindName is a display name for error messages, a string type
// distinct from model.CrdtKind.
type CrdtKindName string

func (e *MergeError) Error() string {
	return "crdt: merge failed for " + string(e.Kind) + " (" + string(e.Reason) + "): " + e.Err.Error()
}

func (e *MergeError) Unwrap() error { return e.Err }
