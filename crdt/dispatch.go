// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"context"
	"errors"

	"github.com/luxfi/hybridsync/model"
)

// WasmCallback resolves a CrdtCustom type's merge by delegating to a
// WASM-hosted function identified by typeName.
type WasmCallback func(ctx context.Context, typeName string, local, remote []byte) ([]byte, error)

// FallbackLogger is invoked on every Merge call that falls back to
// LWW-by-updated_at because neither side's metadata carried a CrdtType
// ("None" dispatch) or the kind is not one Merge knows. Merge does not
// deduplicate; syncmanager.Session reduces it to one warning per
// (entity, session). Merge is otherwise pure, so this is the one side
// channel it uses; callers that don't care pass nil.
type FallbackLogger func()

// Merge dispatches on the CrdtKind carried by localMeta or remoteMeta
// (whichever is set; they are expected to agree when both are set) and
// returns the merged value bytes plus the metadata to persist
// afterward. A nil CrdtType on both sides merges via the LWW fallback
// and invokes onFallback if non-nil.
func Merge(ctx context.Context, local, remote []byte, localMeta, remoteMeta model.Metadata, wasmCB WasmCallback, onFallback FallbackLogger) ([]byte, model.Metadata, error) {
	mergedMeta := mergeMetadata(localMeta, remoteMeta)

	crdtType := localMeta.CrdtType
	if crdtType == nil {
		crdtType = remoteMeta.CrdtType
	}

	if crdtType == nil {
		if onFallback != nil {
			onFallback()
		}
		merged, err := mergeLwwRegister(local, remote, localMeta.UpdatedAt, remoteMeta.UpdatedAt)
		return merged, mergedMeta, err
	}

	if localMeta.CrdtType != nil && remoteMeta.CrdtType != nil && localMeta.CrdtType.Kind != remoteMeta.CrdtType.Kind {
		return nil, mergedMeta, wrapErr("Mismatched", ReasonTypeMismatch, ErrTypeMismatch)
	}

	switch crdtType.Kind {
	case model.CrdtCounter:
		merged, err := mergeCounter(local, remote)
		return merged, mergedMeta, wrapErr("Counter", ReasonSerialization, err)
	case model.CrdtLwwRegister:
		merged, err := mergeLwwRegister(local, remote, localMeta.UpdatedAt, remoteMeta.UpdatedAt)
		return merged, mergedMeta, wrapErr("LwwRegister", ReasonSerialization, err)
	case model.CrdtRga:
		merged, err := mergeRga(local, remote)
		return merged, mergedMeta, wrapErr("Rga", ReasonSerialization, err)
	case model.CrdtUnorderedMap:
		merged, err := mergeUnorderedMap(local, remote)
		return merged, mergedMeta, wrapErr("UnorderedMap", ReasonSerialization, err)
	case model.CrdtUnorderedSet:
		merged, err := mergeUnorderedSet(local, remote)
		return merged, mergedMeta, wrapErr("UnorderedSet", ReasonSerialization, err)
	case model.CrdtVector:
		merged, err := mergeVector(local, remote)
		return merged, mergedMeta, wrapErr("Vector", ReasonSerialization, err)
	case model.CrdtCustom:
		if wasmCB == nil {
			return nil, mergedMeta, wrapErr("Custom", ReasonWasmRequired, ErrCustomNoCallback)
		}
		merged, err := wasmCB(ctx, crdtType.TypeName, local, remote)
		if err != nil {
			reason := ReasonWasmFailed
			if errors.Is(err, context.DeadlineExceeded) {
				reason = ReasonWasmTimeout
			}
			return nil, mergedMeta, wrapErr("Custom", reason, err)
		}
		return merged, mergedMeta, nil
	default:
		if onFallback != nil {
			onFallback()
		}
		merged, err := mergeLwwRegister(local, remote, localMeta.UpdatedAt, remoteMeta.UpdatedAt)
		return merged, mergedMeta, wrapErr("Unknown", ReasonSerialization, err)
	}
}

func wrapErr(kind CrdtKindName, reason Reason, err error) error {
	if err == nil {
		return nil
	}
	return &MergeError{Kind: kind, Reason: reason, Err: err}
}

// mergeMetadata combines two metadata values: UpdatedAt takes the
// tuple-max HLC, CrdtType prefers whichever side set one, and
// CreatedAt takes the earlier of the two non-zero values.
func mergeMetadata(a, b model.Metadata) model.Metadata {
	out := a
	out.UpdatedAt = a.UpdatedAt.Max(b.UpdatedAt)

	if out.CrdtType == nil {
		out.CrdtType = b.CrdtType
	}

	switch {
	case a.CreatedAt == 0:
		out.CreatedAt = b.CreatedAt
	case b.CreatedAt == 0:
		out.CreatedAt = a.CreatedAt
	case b.CreatedAt < a.CreatedAt:
		out.CreatedAt = b.CreatedAt
	default:
		out.CreatedAt = a.CreatedAt
	}

	return out
}
