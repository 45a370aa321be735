// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/hybridsync/codec"
	"github.com/luxfi/hybridsync/dag"
	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/wire"
)

// loopbackTransport wires every Transport call straight to a peer's
// Responder functions, simulating a two-node session without any
// actual I/O.
type loopbackTransport struct {
	peerIndex *merkle.Index
	peerDAG   *dag.DAG
	pageSize  int
}

func (l loopbackTransport) DeltaSync(_ context.Context, req wire.DeltaSyncRequest) (wire.DeltaSyncResponse, error) {
	return RespondDelta(req, l.peerDAG), nil
}

func (l loopbackTransport) TreeNode(_ context.Context, req wire.TreeNodeRequest) (wire.TreeNodeResponse, error) {
	return RespondTreeNode(req, l.peerIndex), nil
}

func (l loopbackTransport) BloomFilter(_ context.Context, req wire.BloomFilterRequest) (wire.BloomFilterResponse, error) {
	return RespondBloomFilter(req, l.peerIndex), nil
}

func (l loopbackTransport) SubtreePrefetch(_ context.Context, req wire.SubtreePrefetchRequest) (wire.SubtreePrefetchResponse, error) {
	return RespondSubtreePrefetch(req, l.peerIndex), nil
}

func (l loopbackTransport) LevelWise(_ context.Context, req wire.LevelWiseRequest) (wire.LevelWiseResponse, error) {
	return RespondLevelWise(req, l.peerIndex), nil
}

func (l loopbackTransport) Snapshot(_ context.Context, _ wire.SnapshotRequest) ([]wire.SnapshotPage, wire.SnapshotComplete, error) {
	pages, complete := RespondSnapshot(l.peerIndex, l.pageSize)
	return pages, complete, nil
}

func entity(idByte byte, value string) model.Entity {
	var id model.EntityId
	id[0] = idByte
	return model.Entity{ID: id, Value: []byte(value)}
}

func TestDeltaInitiatorFetchesMissingDeltas(t *testing.T) {
	peerDAG := dag.New()
	root := mkDeltaForStrategy("root")
	_, err := peerDAG.Insert(root)
	require.NoError(t, err)

	localDAG := dag.New()
	t2 := loopbackTransport{peerDAG: peerDAG}

	stats, err := RunDeltaInitiator(context.Background(), t2, []model.DeltaId{root.ID}, localDAG)
	require.NoError(t, err)
	require.Equal(t, 1, stats.EntitiesMerged)
	require.True(t, localDAG.Contains(root.ID))
}

func mkDeltaForStrategy(payload string) model.CausalDelta {
	d := model.CausalDelta{Payload: []byte(payload)}
	d.ID = codec.DeriveDeltaID(d)
	return d
}

func TestDeltaInitiatorEscalatesOnUnresolvedParent(t *testing.T) {
	peerDAG := dag.New()
	missingParent := mkDeltaForStrategy("never-sent")
	_, err := peerDAG.Insert(missingParent)
	require.NoError(t, err)

	child := model.CausalDelta{Payload: []byte("child"), Parents: []model.DeltaId{missingParent.ID}}
	child.ID = codec.DeriveDeltaID(child)
	_, err = peerDAG.Insert(child)
	require.NoError(t, err)

	localDAG := dag.New()
	tr := loopbackTransport{peerDAG: peerDAG}

	// Request only the child: the responder has its parent applied, but
	// this node's localDAG does not, so child can only go Pending.
	stats, err := RunDeltaInitiator(context.Background(), tr, []model.DeltaId{child.ID}, localDAG)
	require.ErrorIs(t, err, ErrUnresolvedParent)
	require.Equal(t, 0, stats.EntitiesMerged)
	_, applied := localDAG.Get(child.ID)
	require.False(t, applied, "a pending delta is held, not applied")
}

func TestHashComparisonInitiatorConvergesOnPeerState(t *testing.T) {
	peerIndex := merkle.NewIndex()
	peerIndex.Put(entity(1, "a"))
	peerIndex.Put(entity(2, "b"))

	localIndex := merkle.NewIndex()
	merger := EntityMerger{Index: localIndex}
	tr := loopbackTransport{peerIndex: peerIndex}

	stats, err := RunHashComparisonInitiator(context.Background(), tr, merger, peerIndex.RootHash())
	require.NoError(t, err)
	require.Equal(t, 2, stats.EntitiesMerged)
	require.Equal(t, peerIndex.RootHash(), localIndex.RootHash())
}

func TestHashComparisonInitiatorNoOpWhenRootsMatch(t *testing.T) {
	localIndex := merkle.NewIndex()
	localIndex.Put(entity(1, "a"))

	stats, err := RunHashComparisonInitiator(context.Background(), loopbackTransport{}, EntityMerger{Index: localIndex}, localIndex.RootHash())
	require.NoError(t, err)
	require.Equal(t, 0, stats.EntitiesMerged)
}

func TestBloomFilterInitiatorFetchesMissingEntities(t *testing.T) {
	peerIndex := merkle.NewIndex()
	peerIndex.Put(entity(1, "a"))
	peerIndex.Put(entity(2, "b"))

	localIndex := merkle.NewIndex()
	localIndex.Put(entity(1, "a"))

	merger := EntityMerger{Index: localIndex}
	tr := loopbackTransport{peerIndex: peerIndex}

	stats, err := RunBloomFilterInitiator(context.Background(), tr, merger, 0.01)
	require.NoError(t, err)
	require.Equal(t, 1, stats.EntitiesMerged)

	_, ok := localIndex.Get(entity(2, "b").ID)
	require.True(t, ok)
}

func TestSubtreePrefetchInitiatorFetchesEverythingUnderRoot(t *testing.T) {
	peerIndex := merkle.NewIndex()
	peerIndex.Put(entity(1, "a"))
	peerIndex.Put(entity(2, "b"))
	peerIndex.Put(entity(3, "c"))

	localIndex := merkle.NewIndex()
	merger := EntityMerger{Index: localIndex}
	tr := loopbackTransport{peerIndex: peerIndex}

	stats, err := RunSubtreePrefetchInitiator(context.Background(), tr, merger, []model.Hash{peerIndex.RootHash()})
	require.NoError(t, err)
	require.Equal(t, 3, stats.EntitiesMerged)
	require.Equal(t, peerIndex.RootHash(), localIndex.RootHash())
}

func TestLevelWiseInitiatorConvergesOnPeerState(t *testing.T) {
	peerIndex := merkle.NewIndex()
	peerIndex.Put(entity(1, "a"))
	peerIndex.Put(entity(2, "b"))
	peerIndex.Put(entity(3, "c"))
	peerIndex.Put(entity(4, "d"))

	localIndex := merkle.NewIndex()
	merger := EntityMerger{Index: localIndex}
	tr := loopbackTransport{peerIndex: peerIndex}

	stats, err := RunLevelWiseInitiator(context.Background(), tr, merger, peerIndex.RootHash())
	require.NoError(t, err)
	require.Equal(t, 4, stats.EntitiesMerged)
	require.Equal(t, peerIndex.RootHash(), localIndex.RootHash())
}

func TestSnapshotInitiatorRequiresEmptyLocalIndex(t *testing.T) {
	localIndex := merkle.NewIndex()
	localIndex.Put(entity(1, "a"))

	_, err := RunSnapshotInitiator(context.Background(), loopbackTransport{}, EntityMerger{Index: localIndex}, false)
	require.ErrorIs(t, err, ErrNotEmpty)
}

func TestSnapshotInitiatorTransfersFullState(t *testing.T) {
	peerIndex := merkle.NewIndex()
	peerIndex.Put(entity(1, "a"))
	peerIndex.Put(entity(2, "b"))
	peerIndex.Put(entity(3, "c"))

	localIndex := merkle.NewIndex()
	tr := loopbackTransport{peerIndex: peerIndex, pageSize: 2}

	stats, err := RunSnapshotInitiator(context.Background(), tr, EntityMerger{Index: localIndex}, false)
	require.NoError(t, err)
	require.Equal(t, 3, stats.EntitiesMerged)
	require.Equal(t, peerIndex.RootHash(), localIndex.RootHash())
}

func TestSnapshotInitiatorRejectsTamperedRootHash(t *testing.T) {
	peerIndex := merkle.NewIndex()
	peerIndex.Put(entity(1, "a"))

	localIndex := merkle.NewIndex()
	tr := tamperedSnapshotTransport{loopbackTransport{peerIndex: peerIndex, pageSize: 10}}

	_, err := RunSnapshotInitiator(context.Background(), tr, EntityMerger{Index: localIndex}, false)
	require.ErrorIs(t, err, ErrVerificationFailed)
	require.True(t, localIndex.IsEmpty(), "a failed verification must not write any entity")
}

type tamperedSnapshotTransport struct {
	loopbackTransport
}

func (t tamperedSnapshotTransport) Snapshot(ctx context.Context, req wire.SnapshotRequest) ([]wire.SnapshotPage, wire.SnapshotComplete, error) {
	pages, complete, err := t.loopbackTransport.Snapshot(ctx, req)
	complete.RootHash[0] ^= 0xFF
	return pages, complete, err
}
