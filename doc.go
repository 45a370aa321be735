// Copyright (C) 2019-2026, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

/*
Package hybridsync implements a hybrid state synchronization protocol
for peer-to-peer CRDT replication: two nodes holding divergent
replicas of a shared key-value state converge by running whichever of
several sync strategies best fits how far apart they actually are,
rather than always paying for a full state transfer or always paying
for one round trip per difference.

# Architecture

The module is organized by concern, mirroring how a sync session
actually flows from wire bytes to merged state:

  - model/       core value types: entity ids, hybrid logical clocks, CRDT tags
  - wire/        the binary message formats exchanged between peers
  - codec/       canonical delta encoding behind content-addressed delta ids (used by dag)
  - crdt/        the merge dispatch table, one rule per CrdtKind
  - dag/         the causal delta DAG a node buffers deltas into
  - merkle/      the Merkle tree/index used for divergence detection
  - bloomfilter/ the Bloom filter wire representation
  - hlc/         the hybrid logical clock implementation
  - buffer/      the bounded delta buffer a session drains into the DAG
  - kvstore/     the local key-value store a merged entity is written to
  - strategy/    one file per sync strategy: snapshot, delta, bloom
    filter, hash comparison, level-wise, subtree prefetch
  - syncmanager/ the state machine that runs a handshake, selects a
    strategy, and drives it to completion
  - wasmcb/      the WASM callback contract for CrdtCustom merges
  - config/      tunables and their validated builder
  - metrics/     the prometheus-backed Sink every session reports into

# Sync Lifecycle

A session moves through a fixed state machine:

	Idle -> Handshake -> Negotiating -> Transferring -> Replaying -> Idle

Handshake exchanges each side's root hash, entity count, and DAG
heads. The responder runs protocol selection against that handshake
and returns its decision; the initiator only acts on it. Negotiating
reads the protocol the responder selected; it does not check the
responder's advertised capabilities.
Transferring runs the chosen strategy's initiator side against a
Transport. Replaying drains any deltas buffered mid-transfer into the
DAG and applies them. Any error along the way moves the session to a
terminal Failed(reason) state instead of looping back to Idle.

# Strategy Selection

Six strategies trade off round trips against bytes transferred:

	Snapshot         full state transfer, for bootstrapping an empty node
	Delta            fetch-by-id, for a small causal gap
	BloomFilter      probabilistic set difference, for a small divergence ratio over many entities
	HashComparison   Merkle tree descent, the default when no other rule applies
	LevelWise        breadth-first Merkle tree comparison, for a shallow tree
	SubtreePrefetch  bulk subtree fetch, for a moderate divergence ratio in a deep tree

Selection runs once, on the responder, using the rules in
syncmanager/selection.go; see that file's doc comment for the exact
ordering and the "local means the requester" convention it uses.

# Usage

	mgr := syncmanager.NewManager(cfg, logger, sink)
	key := syncmanager.Key{Context: contextID, Peer: peerID}
	sess, started := mgr.Trigger(ctx, key, deps, reason)
	if !started {
		// a session for key is already running; sess is that session
	}
	<-sess.Done()
	result := sess.Result()

# Observability

Every session and strategy reports into a metrics.Sink backed by
prometheus/client_golang, and logs through github.com/luxfi/log. See
metrics/metrics.go for the full set of counters, gauges, and
averagers a session can emit.
*/
package hybridsync
