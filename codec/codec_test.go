// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/hybridsync/model"
)

func sampleDelta() model.CausalDelta {
	return model.CausalDelta{
		Parents: []model.DeltaId{{1}, {2}},
		HLC: model.HybridTimestamp{
			PhysicalMS: 100,
			Counter:    2,
			NodeID:     model.NodeID{9},
		},
		Nonce:              [24]byte{1, 2, 3},
		Author:             model.NodeID{7},
		RootHashAfterApply: model.Hash{5},
		Payload:            []byte("payload"),
		Events: []model.Event{
			{EntityID: model.EntityId{3}, Kind: "set", Payload: []byte("v")},
		},
	}
}

func TestCanonicalDeltaBytesDeterministic(t *testing.T) {
	d := sampleDelta()
	a := CanonicalDeltaBytes(d)
	b := CanonicalDeltaBytes(d)
	require.Equal(t, a, b, "canonical encoding must be byte-identical across calls")
}

func TestDeriveDeltaIDIgnoresIDField(t *testing.T) {
	d := sampleDelta()
	d.ID = model.DeltaId{0xff}
	idWithGarbageID := DeriveDeltaID(d)

	d.ID = model.DeltaId{}
	idWithZeroID := DeriveDeltaID(d)

	require.Equal(t, idWithGarbageID, idWithZeroID)
}

func TestDeriveDeltaIDChangesWithPayload(t *testing.T) {
	d1 := sampleDelta()
	d2 := sampleDelta()
	d2.Payload = []byte("different payload")

	require.NotEqual(t, DeriveDeltaID(d1), DeriveDeltaID(d2))
}

func TestDeriveDeltaIDChangesWithParentOrder(t *testing.T) {
	d1 := sampleDelta()
	d2 := sampleDelta()
	d2.Parents = []model.DeltaId{d1.Parents[1], d1.Parents[0]}

	require.NotEqual(t, DeriveDeltaID(d1), DeriveDeltaID(d2),
		"parent order is part of the canonical encoding, not normalized away")
}

func TestCanonicalMetadataBytesNilVsSetCrdtType(t *testing.T) {
	withoutType := model.Metadata{CreatedAt: 1}
	withType := model.Metadata{CreatedAt: 1, CrdtType: &model.CrdtType{Kind: model.CrdtCounter}}

	require.NotEqual(t, CanonicalMetadataBytes(withoutType), CanonicalMetadataBytes(withType))
}
