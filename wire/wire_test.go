// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/hybridsync/model"
)

func TestFrameRoundTrip(t *testing.T) {
	msg := SyncHandshake{
		Version:            ProtocolVersion,
		RootHash:           model.Hash{1, 2, 3},
		EntityCount:        5,
		MaxDepth:           3,
		DagHeads:           []model.DeltaId{{9}, {8}},
		HasState:           true,
		SupportedProtocols: []ProtocolTag{ProtocolDelta, ProtocolSnapshot},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, msg))

	tag, payload, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, TagSyncHandshake, tag)

	decoded, err := DecodeSyncHandshake(payload)
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestReadMessageDispatchesAllTags(t *testing.T) {
	cases := []Message{
		SyncHandshake{Version: 1, SupportedProtocols: []ProtocolTag{ProtocolDelta}},
		SyncHandshakeResponse{SelectedProtocol: ProtocolHashComparison},
		DeltaSyncRequest{MissingDeltaIDs: []model.DeltaId{{1}}},
		DeltaSyncResponse{Deltas: []model.CausalDelta{{Payload: []byte("x")}}},
		TreeNodeRequest{NodeHash: model.Hash{1}},
		TreeNodeResponse{Nodes: []TreeNode{{Hash: model.Hash{2}}}},
		BloomFilterRequest{Filter: BloomFilterData{Bits: []byte{0xff}, NumBits: 8, NumHash: 2}},
		BloomFilterResponse{MissingEntities: []TreeLeafData{{Key: model.EntityId{1}, Value: []byte("v")}}},
		SubtreePrefetchRequest{SubtreeRootHashes: []model.Hash{{3}}},
		SubtreePrefetchResponse{Leaves: []TreeLeafData{{Key: model.EntityId{4}}}},
		LevelWiseRequest{Level: 2, ParentHashes: []model.Hash{{5}}},
		LevelWiseResponse{Level: 2, Nodes: []LevelNode{{Hash: model.Hash{6}, ParentHash: model.Hash{5}}}},
		SnapshotRequest{Compressed: true},
		SnapshotPage{PageNumber: 1, TotalPages: 4, Entities: []SnapshotEntity{{ID: model.EntityId{7}}}},
		SnapshotComplete{RootHash: model.Hash{8}, TotalEntities: 100},
	}

	for _, msg := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteFrame(&buf, msg))

		decoded, err := ReadMessage(&buf)
		require.NoError(t, err, "tag %s", msg.Tag())
		require.Equal(t, msg.Tag(), decoded.Tag())
	}
}

func TestDecodeUnknownTagErrors(t *testing.T) {
	_, err := Decode(Tag(0xEE), nil)
	require.ErrorIs(t, err, ErrUnknownTag)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	p := uint32(MaxFrameSize + 1)
	buf.Write([]byte{byte(p >> 24), byte(p >> 16), byte(p >> 8), byte(p)})

	_, _, err := ReadFrame(&buf)
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestTreeLeafDataOptionalRoundTripsNil(t *testing.T) {
	resp := TreeNodeResponse{Nodes: []TreeNode{{Hash: model.Hash{1}, Children: []model.Hash{{2}, {3}}, LeafData: nil}}}
	encoded := resp.Encode()
	decoded, err := DecodeTreeNodeResponse(encoded)
	require.NoError(t, err)
	require.Nil(t, decoded.Nodes[0].LeafData)
	require.Equal(t, resp.Nodes[0].Children, decoded.Nodes[0].Children)
}
