// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syncmanager

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/luxfi/hybridsync/strategy"
	"github.com/luxfi/hybridsync/wire"
)

// Transport is what a Session needs from a connection to a peer: the
// handshake exchange plus every strategy's request/response pair.
// strategy.Transport is embedded so any strategy engine can be handed a
// Transport directly without an adapter.
type Transport interface {
	strategy.Transport
	Handshake(ctx context.Context, req wire.SyncHandshake) (wire.SyncHandshakeResponse, error)
}

// wireTransport implements Transport over a single bidirectional
// stream using the wire package's framing. Calls are synchronous and
// serialized: a session only ever has one request in flight at a time,
// so a plain mutex around send-then-receive is sufficient and avoids
// the bookkeeping a request-id multiplexer would need.
type wireTransport struct {
	mu sync.Mutex
	rw io.ReadWriter
}

// NewWireTransport adapts a raw stream into a Transport.
func NewWireTransport(rw io.ReadWriter) Transport {
	return &wireTransport{rw: rw}
}

// roundTrip sends req and blocks for the next frame, returning it
// decoded. ctx cancellation does not interrupt an in-flight blocking
// Read on rw (the stream has no deadline hook here); callers bound
// overall session lifetime at a higher level via SessionTimeout and
// MessageTimeout, and an already-cancelled ctx is checked up front so a
// session that was cancelled before this call never starts new I/O.
func (t *wireTransport) roundTrip(ctx context.Context, req wire.Message) (wire.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := wire.WriteFrame(t.rw, req); err != nil {
		return nil, fmt.Errorf("syncmanager: write %s: %w", req.Tag(), err)
	}
	resp, err := wire.ReadMessage(t.rw)
	if err != nil {
		return nil, fmt.Errorf("syncmanager: read response to %s: %w", req.Tag(), err)
	}
	return resp, nil
}

func (t *wireTransport) Handshake(ctx context.Context, req wire.SyncHandshake) (wire.SyncHandshakeResponse, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return wire.SyncHandshakeResponse{}, err
	}
	hr, ok := resp.(wire.SyncHandshakeResponse)
	if !ok {
		return wire.SyncHandshakeResponse{}, fmt.Errorf("%w: expected SyncHandshakeResponse, got %s", wire.ErrUnknownTag, resp.Tag())
	}
	return hr, nil
}

func (t *wireTransport) DeltaSync(ctx context.Context, req wire.DeltaSyncRequest) (wire.DeltaSyncResponse, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return wire.DeltaSyncResponse{}, err
	}
	r, ok := resp.(wire.DeltaSyncResponse)
	if !ok {
		return wire.DeltaSyncResponse{}, fmt.Errorf("%w: expected DeltaSyncResponse, got %s", wire.ErrUnknownTag, resp.Tag())
	}
	return r, nil
}

func (t *wireTransport) TreeNode(ctx context.Context, req wire.TreeNodeRequest) (wire.TreeNodeResponse, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return wire.TreeNodeResponse{}, err
	}
	r, ok := resp.(wire.TreeNodeResponse)
	if !ok {
		return wire.TreeNodeResponse{}, fmt.Errorf("%w: expected TreeNodeResponse, got %s", wire.ErrUnknownTag, resp.Tag())
	}
	return r, nil
}

func (t *wireTransport) BloomFilter(ctx context.Context, req wire.BloomFilterRequest) (wire.BloomFilterResponse, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return wire.BloomFilterResponse{}, err
	}
	r, ok := resp.(wire.BloomFilterResponse)
	if !ok {
		return wire.BloomFilterResponse{}, fmt.Errorf("%w: expected BloomFilterResponse, got %s", wire.ErrUnknownTag, resp.Tag())
	}
	return r, nil
}

func (t *wireTransport) SubtreePrefetch(ctx context.Context, req wire.SubtreePrefetchRequest) (wire.SubtreePrefetchResponse, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return wire.SubtreePrefetchResponse{}, err
	}
	r, ok := resp.(wire.SubtreePrefetchResponse)
	if !ok {
		return wire.SubtreePrefetchResponse{}, fmt.Errorf("%w: expected SubtreePrefetchResponse, got %s", wire.ErrUnknownTag, resp.Tag())
	}
	return r, nil
}

func (t *wireTransport) LevelWise(ctx context.Context, req wire.LevelWiseRequest) (wire.LevelWiseResponse, error) {
	resp, err := t.roundTrip(ctx, req)
	if err != nil {
		return wire.LevelWiseResponse{}, err
	}
	r, ok := resp.(wire.LevelWiseResponse)
	if !ok {
		return wire.LevelWiseResponse{}, fmt.Errorf("%w: expected LevelWiseResponse, got %s", wire.ErrUnknownTag, resp.Tag())
	}
	return r, nil
}

// Snapshot reads SnapshotPage frames until a SnapshotComplete arrives.
// The responder side (RespondSnapshot) produces exactly that sequence,
// so no separate request/page-count negotiation is needed here.
func (t *wireTransport) Snapshot(ctx context.Context, req wire.SnapshotRequest) ([]wire.SnapshotPage, wire.SnapshotComplete, error) {
	if err := ctx.Err(); err != nil {
		return nil, wire.SnapshotComplete{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := wire.WriteFrame(t.rw, req); err != nil {
		return nil, wire.SnapshotComplete{}, fmt.Errorf("syncmanager: write SnapshotRequest: %w", err)
	}

	var pages []wire.SnapshotPage
	for {
		msg, err := wire.ReadMessage(t.rw)
		if err != nil {
			return nil, wire.SnapshotComplete{}, fmt.Errorf("syncmanager: read snapshot stream: %w", err)
		}
		switch m := msg.(type) {
		case wire.SnapshotPage:
			pages = append(pages, m)
		case wire.SnapshotComplete:
			return pages, m, nil
		default:
			return nil, wire.SnapshotComplete{}, fmt.Errorf("%w: unexpected %s in snapshot stream", wire.ErrUnknownTag, msg.Tag())
		}
	}
}
