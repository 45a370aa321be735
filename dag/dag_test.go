// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/hybridsync/codec"
	"github.com/luxfi/hybridsync/model"
)

// mkDelta builds a well-formed CausalDelta with a correctly derived ID,
// distinguished from other test deltas by payload.
func mkDelta(payload string, parents ...model.DeltaId) model.CausalDelta {
	d := model.CausalDelta{
		Parents: parents,
		HLC:     model.HybridTimestamp{PhysicalMS: 1, Counter: 0, NodeID: model.NodeID{1}},
		Author:  model.NodeID{1},
		Payload: []byte(payload),
	}
	d.ID = codec.DeriveDeltaID(d)
	return d
}

func TestInsertRootDeltaApplies(t *testing.T) {
	d := New()
	root := mkDelta("root")

	state, err := d.Insert(root)
	require.NoError(t, err)
	require.Equal(t, Applied, state)
	require.True(t, d.Contains(root.ID))
	require.Equal(t, []model.DeltaId{root.ID}, d.Heads())
}

func TestInsertWithMissingParentIsPending(t *testing.T) {
	d := New()
	root := mkDelta("root")
	child := mkDelta("child", root.ID)

	state, err := d.Insert(child)
	require.NoError(t, err)
	require.Equal(t, Pending, state)
	require.Equal(t, 0, d.AppliedLen())
	require.Equal(t, 1, d.PendingLen())

	missing, ok := d.MissingParentsOf(child.ID)
	require.True(t, ok)
	require.Equal(t, []model.DeltaId{root.ID}, missing)
}

func TestApplyPendingSweepsOnParentArrival(t *testing.T) {
	d := New()
	root := mkDelta("root")
	child := mkDelta("child", root.ID)
	grandchild := mkDelta("grandchild", child.ID)

	_, err := d.Insert(grandchild)
	require.NoError(t, err)
	_, err = d.Insert(child)
	require.NoError(t, err)
	require.Equal(t, 0, d.AppliedLen(), "child itself still pending on root")

	state, err := d.Insert(root)
	require.NoError(t, err)
	require.Equal(t, Applied, state)

	require.Equal(t, 3, d.AppliedLen())
	require.Equal(t, 0, d.PendingLen())
	require.Equal(t, []model.DeltaId{grandchild.ID}, d.Heads())
}

func TestInsertRejectsHashMismatch(t *testing.T) {
	d := New()
	bad := mkDelta("root")
	bad.ID = model.DeltaId{0xff}

	state, err := d.Insert(bad)
	require.ErrorIs(t, err, ErrHashMismatch)
	require.Equal(t, Rejected, state)
	require.False(t, d.Contains(bad.ID))
}

func TestInsertIsIdempotent(t *testing.T) {
	d := New()
	root := mkDelta("root")

	state1, err := d.Insert(root)
	require.NoError(t, err)
	state2, err := d.Insert(root)
	require.NoError(t, err)

	require.Equal(t, state1, state2)
	require.Equal(t, 1, d.AppliedLen())
}

func TestHeadsConvergeWithMultipleParents(t *testing.T) {
	d := New()
	root := mkDelta("root")
	left := mkDelta("left", root.ID)
	right := mkDelta("right", root.ID)
	merge := mkDelta("merge", left.ID, right.ID)

	for _, delta := range []model.CausalDelta{root, left, right, merge} {
		_, err := d.Insert(delta)
		require.NoError(t, err)
	}

	require.Equal(t, []model.DeltaId{merge.ID}, d.Heads())
}

func TestGetReturnsOnlyApplied(t *testing.T) {
	d := New()
	root := mkDelta("root")
	child := mkDelta("child", root.ID)

	_, err := d.Insert(child)
	require.NoError(t, err)

	_, ok := d.Get(child.ID)
	require.False(t, ok, "pending deltas are not visible through Get")

	_, err = d.Insert(root)
	require.NoError(t, err)

	got, ok := d.Get(child.ID)
	require.True(t, ok)
	require.Equal(t, child, got)
}

func TestMissingDeltaIDsCollectsAcrossAllPending(t *testing.T) {
	d := New()
	parentA := mkDelta("parentA")
	parentB := mkDelta("parentB")
	childA := mkDelta("childA", parentA.ID)
	childB := mkDelta("childB", parentB.ID)

	_, err := d.Insert(childA)
	require.NoError(t, err)
	_, err = d.Insert(childB)
	require.NoError(t, err)

	missing := d.MissingDeltaIDs()
	require.ElementsMatch(t, []model.DeltaId{parentA.ID, parentB.ID}, missing)

	_, err = d.Insert(parentA)
	require.NoError(t, err)
	require.ElementsMatch(t, []model.DeltaId{parentB.ID}, d.MissingDeltaIDs())
}
