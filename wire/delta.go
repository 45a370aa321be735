// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/wrappers"
)

// DeltaSyncRequest asks the peer for the CausalDelta values behind a
// set of ids the Delta strategy determined are missing locally.
type DeltaSyncRequest struct {
	MissingDeltaIDs []model.DeltaId
}

func (DeltaSyncRequest) Tag() Tag { return TagDeltaSyncRequest }

func (r DeltaSyncRequest) Encode() []byte {
	p := wrappers.NewPacker(4 + 32*len(r.MissingDeltaIDs))
	packDeltaIDs(p, r.MissingDeltaIDs)
	return p.Bytes
}

func DecodeDeltaSyncRequest(b []byte) (DeltaSyncRequest, error) {
	u := wrappers.NewUnpacker(b)
	ids := unpackDeltaIDs(u)
	if u.Err != nil || !u.Done() {
		return DeltaSyncRequest{}, wrappers.ErrShortBuffer
	}
	return DeltaSyncRequest{MissingDeltaIDs: ids}, nil
}

// DeltaSyncResponse carries the requested deltas, in an order the
// receiver can apply directly into its DAG (ancestors first is not
// required; dag.DAG buffers out-of-order deltas as Pending).
type DeltaSyncResponse struct {
	Deltas []model.CausalDelta
}

func (DeltaSyncResponse) Tag() Tag { return TagDeltaSyncResponse }

func (r DeltaSyncResponse) Encode() []byte {
	p := wrappers.NewPacker(128 * len(r.Deltas))
	p.PackUint32(uint32(len(r.Deltas)))
	for _, d := range r.Deltas {
		EncodeCausalDelta(p, d)
	}
	return p.Bytes
}

func DecodeDeltaSyncResponse(b []byte) (DeltaSyncResponse, error) {
	u := wrappers.NewUnpacker(b)
	n := u.UnpackUint32()
	if u.Err != nil {
		return DeltaSyncResponse{}, u.Err
	}
	deltas := make([]model.CausalDelta, 0, n)
	for i := uint32(0); i < n; i++ {
		deltas = append(deltas, DecodeCausalDelta(u))
		if u.Err != nil {
			return DeltaSyncResponse{}, u.Err
		}
	}
	if !u.Done() {
		return DeltaSyncResponse{}, wrappers.ErrShortBuffer
	}
	return DeltaSyncResponse{Deltas: deltas}, nil
}
