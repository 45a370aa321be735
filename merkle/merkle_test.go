// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/hybridsync/model"
)

func entity(idByte byte, value string) model.Entity {
	return model.Entity{ID: model.EntityId{idByte}, Value: []byte(value)}
}

func TestEmptyIndexRootIsZeroHash(t *testing.T) {
	ix := NewIndex()
	require.Equal(t, model.ZeroHash, ix.RootHash())
	require.True(t, ix.IsEmpty())
}

func TestPutThenGet(t *testing.T) {
	ix := NewIndex()
	e := entity(1, "hello")
	ix.Put(e)

	got, ok := ix.Get(e.ID)
	require.True(t, ok)
	require.Equal(t, e, got)
	require.False(t, ix.IsEmpty())
}

func TestRootHashChangesOnValueUpdate(t *testing.T) {
	ix := NewIndex()
	ix.Put(entity(1, "v1"))
	before := ix.RootHash()

	ix.Put(entity(1, "v2"))
	after := ix.RootHash()

	require.NotEqual(t, before, after)
}

func TestRootHashStableAcrossInsertOrder(t *testing.T) {
	a := NewIndex()
	a.Put(entity(1, "a"))
	a.Put(entity(2, "b"))
	a.Put(entity(3, "c"))

	b := NewIndex()
	b.Put(entity(3, "c"))
	b.Put(entity(1, "a"))
	b.Put(entity(2, "b"))

	require.Equal(t, a.RootHash(), b.RootHash(), "root depends only on sorted content, not insertion order")
}

func TestDeleteRemovesEntityAndChangesRoot(t *testing.T) {
	ix := NewIndex()
	ix.Put(entity(1, "a"))
	ix.Put(entity(2, "b"))
	withBoth := ix.RootHash()

	ix.Delete(entity(2, "b").ID)
	_, ok := ix.Get(model.EntityId{2})
	require.False(t, ok)
	require.NotEqual(t, withBoth, ix.RootHash())
}

func TestOddLeafCountPromotesCorrectly(t *testing.T) {
	ix := NewIndex()
	ix.Put(entity(1, "a"))
	ix.Put(entity(2, "b"))
	ix.Put(entity(3, "c"))
	require.Equal(t, 3, ix.Len())
	require.NotEqual(t, model.ZeroHash, ix.RootHash())
}

func TestIncrementalUpdateMatchesFullRebuild(t *testing.T) {
	ix := NewIndex()
	ix.Put(entity(1, "a"))
	ix.Put(entity(2, "b"))
	ix.Put(entity(3, "c"))
	ix.Put(entity(2, "b-updated")) // O(log n) path update

	incremental := ix.RootHash()

	ix.RebuildFromScratch()
	rebuilt := ix.RootHash()

	require.Equal(t, incremental, rebuilt)
}

func TestOrderedIDsAscending(t *testing.T) {
	ix := NewIndex()
	ix.Put(entity(3, "c"))
	ix.Put(entity(1, "a"))
	ix.Put(entity(2, "b"))

	ids := ix.OrderedIDs()
	require.Len(t, ids, 3)
	for i := 1; i < len(ids); i++ {
		require.True(t, ids[i-1].Less(ids[i]))
	}
}
