// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/hybridsync/model"
)

func hlc(ms uint64, ctr uint32, node byte) model.HybridTimestamp {
	return model.HybridTimestamp{PhysicalMS: ms, Counter: ctr, NodeID: model.NodeID{node}}
}

func metaWithKind(kind model.CrdtKind, updated model.HybridTimestamp) model.Metadata {
	return model.Metadata{UpdatedAt: updated, CrdtType: &model.CrdtType{Kind: kind}}
}

func TestMergeCounterSumsPerNodeMax(t *testing.T) {
	local := EncodeCounter([]CounterEntry{{Node: model.NodeID{1}, Count: 5}, {Node: model.NodeID{2}, Count: 1}})
	remote := EncodeCounter([]CounterEntry{{Node: model.NodeID{1}, Count: 3}, {Node: model.NodeID{2}, Count: 9}})

	meta := metaWithKind(model.CrdtCounter, hlc(1, 0, 1))
	merged, _, err := Merge(context.Background(), local, remote, meta, meta, nil, nil)
	require.NoError(t, err)

	entries, err := DecodeCounter(merged)
	require.NoError(t, err)
	value, err := CounterValue(entries)
	require.NoError(t, err)
	require.EqualValues(t, 14, value) // max(5,3) + max(1,9)
}

func TestMergeLwwRegisterPicksLaterHLC(t *testing.T) {
	localMeta := metaWithKind(model.CrdtLwwRegister, hlc(100, 0, 1))
	remoteMeta := metaWithKind(model.CrdtLwwRegister, hlc(200, 0, 2))

	merged, mergedMeta, err := Merge(context.Background(), []byte("old"), []byte("new"), localMeta, remoteMeta, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("new"), merged)
	require.Equal(t, remoteMeta.UpdatedAt, mergedMeta.UpdatedAt)
}

func TestMergeLwwRegisterTieBreaksOnBytes(t *testing.T) {
	meta := metaWithKind(model.CrdtLwwRegister, hlc(100, 0, 1))
	merged, _, err := Merge(context.Background(), []byte("aaa"), []byte("zzz"), meta, meta, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("zzz"), merged)
}

func TestMergeNoneFallbackInvokesLogger(t *testing.T) {
	localMeta := model.Metadata{UpdatedAt: hlc(1, 0, 1)}
	remoteMeta := model.Metadata{UpdatedAt: hlc(2, 0, 2)}

	called := false
	merged, _, err := Merge(context.Background(), []byte("a"), []byte("b"), localMeta, remoteMeta, nil, func() { called = true })
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, []byte("b"), merged)
}

func TestMergeUnorderedSetAddWins(t *testing.T) {
	local := EncodeSet([]SetElement{{Value: []byte("x"), HasAdd: true, AddedAt: hlc(5, 0, 1)}})
	remote := EncodeSet([]SetElement{{Value: []byte("x"), HasAdd: true, AddedAt: hlc(5, 0, 1), HasRemove: true, RemovedAt: hlc(5, 0, 1)}})

	meta := metaWithKind(model.CrdtUnorderedSet, hlc(5, 0, 1))
	merged, _, err := Merge(context.Background(), local, remote, meta, meta, nil, nil)
	require.NoError(t, err)

	elems, err := DecodeSet(merged)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	require.True(t, elems[0].Present(), "add at the same timestamp as a concurrent remove wins")
}

func TestMergeUnorderedSetRemoveAfterAdd(t *testing.T) {
	local := EncodeSet([]SetElement{{Value: []byte("x"), HasAdd: true, AddedAt: hlc(5, 0, 1)}})
	remote := EncodeSet([]SetElement{{Value: []byte("x"), HasAdd: true, AddedAt: hlc(5, 0, 1), HasRemove: true, RemovedAt: hlc(9, 0, 1)}})

	meta := metaWithKind(model.CrdtUnorderedSet, hlc(5, 0, 1))
	merged, _, err := Merge(context.Background(), local, remote, meta, meta, nil, nil)
	require.NoError(t, err)

	elems, err := DecodeSet(merged)
	require.NoError(t, err)
	require.False(t, elems[0].Present())
}

func TestMergeVectorElementWise(t *testing.T) {
	local := EncodeVector([]VectorElement{{Index: 0, Value: []byte("a"), HLC: hlc(1, 0, 1)}})
	remote := EncodeVector([]VectorElement{{Index: 0, Value: []byte("b"), HLC: hlc(2, 0, 1)}, {Index: 1, Value: []byte("c"), HLC: hlc(1, 0, 1)}})

	meta := metaWithKind(model.CrdtVector, hlc(1, 0, 1))
	merged, _, err := Merge(context.Background(), local, remote, meta, meta, nil, nil)
	require.NoError(t, err)

	elems, err := DecodeVector(merged)
	require.NoError(t, err)
	require.Len(t, elems, 2)
}

func TestMergeRgaTombstonesArePermanent(t *testing.T) {
	origin := hlc(1, 0, 1)
	local := EncodeRga([]RgaElement{{OriginHLC: origin, OriginNode: model.NodeID{1}, Value: []byte("v")}})
	remote := EncodeRga([]RgaElement{{OriginHLC: origin, OriginNode: model.NodeID{1}, Value: []byte("v"), Tombstoned: true}})

	meta := metaWithKind(model.CrdtRga, hlc(1, 0, 1))
	merged, _, err := Merge(context.Background(), local, remote, meta, meta, nil, nil)
	require.NoError(t, err)

	elems, err := DecodeRga(merged)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	require.True(t, elems[0].Tombstoned)
}

func TestMergeUnorderedMapPerKeyLWW(t *testing.T) {
	local := EncodeUnorderedMap([]MapEntry{{Key: "a", Value: []byte("old"), HLC: hlc(1, 0, 1)}})
	remote := EncodeUnorderedMap([]MapEntry{{Key: "a", Value: []byte("new"), HLC: hlc(2, 0, 1)}, {Key: "b", Value: []byte("only-remote"), HLC: hlc(1, 0, 1)}})

	meta := metaWithKind(model.CrdtUnorderedMap, hlc(1, 0, 1))
	merged, _, err := Merge(context.Background(), local, remote, meta, meta, nil, nil)
	require.NoError(t, err)

	entries, err := DecodeUnorderedMap(merged)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestMergeCustomRequiresCallback(t *testing.T) {
	meta := model.Metadata{CrdtType: &model.CrdtType{Kind: model.CrdtCustom, TypeName: "my.Type"}}
	_, _, err := Merge(context.Background(), []byte("a"), []byte("b"), meta, meta, nil, nil)
	require.ErrorIs(t, err, ErrCustomNoCallback)
}

func TestMergeRejectsMismatchedKinds(t *testing.T) {
	localMeta := metaWithKind(model.CrdtCounter, hlc(1, 0, 1))
	remoteMeta := metaWithKind(model.CrdtLwwRegister, hlc(1, 0, 2))

	_, _, err := Merge(context.Background(), []byte("a"), []byte("b"), localMeta, remoteMeta, nil, nil)
	require.ErrorIs(t, err, ErrTypeMismatch)

	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
	require.Equal(t, ReasonTypeMismatch, mergeErr.Reason)
}

func TestMergeCustomNoCallbackReportsWasmRequired(t *testing.T) {
	meta := model.Metadata{CrdtType: &model.CrdtType{Kind: model.CrdtCustom, TypeName: "my.Type"}}
	_, _, err := Merge(context.Background(), []byte("a"), []byte("b"), meta, meta, nil, nil)

	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
	require.Equal(t, ReasonWasmRequired, mergeErr.Reason)
}

func TestMergeCustomCallbackFailureReportsWasmFailed(t *testing.T) {
	meta := model.Metadata{CrdtType: &model.CrdtType{Kind: model.CrdtCustom, TypeName: "my.Type"}}
	cb := func(ctx context.Context, typeName string, local, remote []byte) ([]byte, error) {
		return nil, errors.New("wasm trap")
	}
	_, _, err := Merge(context.Background(), []byte("a"), []byte("b"), meta, meta, cb, nil)

	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
	require.Equal(t, ReasonWasmFailed, mergeErr.Reason)
}

func TestMergeCustomCallbackTimeoutReportsWasmTimeout(t *testing.T) {
	meta := model.Metadata{CrdtType: &model.CrdtType{Kind: model.CrdtCustom, TypeName: "my.Type"}}
	cb := func(ctx context.Context, typeName string, local, remote []byte) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}
	_, _, err := Merge(context.Background(), []byte("a"), []byte("b"), meta, meta, cb, nil)

	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
	require.Equal(t, ReasonWasmTimeout, mergeErr.Reason)
}

func TestMergeCustomDelegatesToCallback(t *testing.T) {
	meta := model.Metadata{CrdtType: &model.CrdtType{Kind: model.CrdtCustom, TypeName: "my.Type"}}
	cb := func(ctx context.Context, typeName string, local, remote []byte) ([]byte, error) {
		require.Equal(t, "my.Type", typeName)
		return append(local, remote...), nil
	}
	merged, _, err := Merge(context.Background(), []byte("a"), []byte("b"), meta, meta, cb, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("ab"), merged)
}

func TestDecodeMalformedValueReturnsError(t *testing.T) {
	_, err := DecodeCounter([]byte{0xff, 0xff, 0xff, 0xff})
	require.ErrorIs(t, err, ErrMalformedValue)
}
