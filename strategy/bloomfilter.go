// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package strategy

import (
	"context"

	"github.com/luxfi/hybridsync/bloomfilter"
	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/wire"
)

// RunBloomFilterInitiator builds a Bloom filter over every entity id in
// merger.Index, sends it to the peer, and merges back whatever entities
// the peer's response indicates may be missing locally. False
// positives in the filter only cost a wasted round of bandwidth on an
// entity that turns out to already match; they never cause incorrect
// state.
func RunBloomFilterInitiator(ctx context.Context, t Transport, merger EntityMerger, targetFPR float64) (Stats, error) {
	ids := merger.Index.OrderedIDs()
	filter := bloomfilter.New(len(ids), targetFPR)
	for _, id := range ids {
		filter.Add(id.Bytes())
	}

	req := wire.BloomFilterRequest{
		Filter: wire.BloomFilterData{
			Bits:    filter.Bits(),
			NumBits: filter.NumBits(),
			NumHash: filter.NumHash(),
		},
		FalsePositiveRate: float32(targetFPR),
	}

	resp, err := t.BloomFilter(ctx, req)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, leaf := range resp.MissingEntities {
		if err := merger.Apply(ctx, leaf); err != nil {
			stats.EntitiesFailed++
			continue
		}
		stats.EntitiesMerged++
	}
	return stats, nil
}

// RespondBloomFilter reconstructs the initiator's filter from the wire
// message and returns every local entity the filter indicates is
// probably absent on the initiator's side.
func RespondBloomFilter(req wire.BloomFilterRequest, local *merkle.Index) wire.BloomFilterResponse {
	filter := bloomfilter.FromParts(req.Filter.Bits, req.Filter.NumBits, req.Filter.NumHash)

	var missing []wire.TreeLeafData
	for _, id := range local.OrderedIDs() {
		if filter.MightContain(id.Bytes()) {
			continue
		}
		entity, ok := local.Get(id)
		if !ok {
			continue
		}
		missing = append(missing, wire.TreeLeafData{Key: entity.ID, Value: entity.Value, Metadata: entity.Metadata})
	}
	return wire.BloomFilterResponse{MissingEntities: missing}
}
