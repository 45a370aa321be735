// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syncmanager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/luxfi/hybridsync/buffer"
	"github.com/luxfi/hybridsync/config"
	"github.com/luxfi/hybridsync/crdt"
	"github.com/luxfi/hybridsync/dag"
	"github.com/luxfi/hybridsync/kvstore"
	"github.com/luxfi/hybridsync/merkle"
	"github.com/luxfi/hybridsync/metrics"
	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/strategy"
	"github.com/luxfi/hybridsync/utils"
	"github.com/luxfi/hybridsync/utils/bag"
	"github.com/luxfi/hybridsync/wasmcb"
	"github.com/luxfi/hybridsync/wire"
)

// Key identifies one (context, peer) pair. At most one session runs
// per Key at a time.
type Key struct {
	Context string
	Peer    model.NodeID
}

// Deps bundles every resource a Session needs that is owned by the
// caller (node-level state shared across sessions) rather than by the
// session itself.
type Deps struct {
	DAG       *dag.DAG
	Index     *merkle.Index
	Transport Transport
	WasmCB    crdt.WasmCallback
	NodeID    model.NodeID

	// Store, if set, is write-through persistence for every entity a
	// session merges; see strategy.EntityMerger.Store. Left nil for a
	// purely in-memory node (tests, or a node that accepts re-running
	// a full snapshot after every restart).
	Store kvstore.Store
}

// BindWasmRuntime adapts a wasmcb.Runtime into the crdt.WasmCallback
// Deps.WasmCB expects, enforcing cfg.WasmCallbackTimeout as the soft
// per-call deadline wasmcb.Runtime's doc comment promises. Callers that
// never register a Custom CRDT type can leave Deps.WasmCB nil instead.
func BindWasmRuntime(rt wasmcb.Runtime, cfg config.Parameters) crdt.WasmCallback {
	return wasmcb.Bind(rt, cfg.WasmCallbackTimeout)
}

// Session drives one sync exchange with one peer through the
// Idle -> Handshake -> Negotiating -> Transferring -> Replaying -> Idle
// state machine (terminal Failed(reason) on error). A mutex-guarded
// cancellable context plus a WaitGroup lets Stop() block until run()
// has actually exited instead of merely signalling it to.
type Session struct {
	deps Deps
	cfg config.Parameters
	log log.Logger
	met *metrics.Sink

	mu        sync.Mutex
	state     *utils.Atomic[State]
	execCtx   context.Context
	cancel    context.CancelFunc
	executing sync.WaitGroup
	started   bool

	buf *buffer.Buffer

	resultMu sync.Mutex
	result   SyncResult
	done     chan struct{}
}

func newSession(deps Deps, cfg config.Parameters, logger log.Logger, sink *metrics.Sink) *Session {
	return &Session{
		deps:  deps,
		cfg:   cfg,
		log:   logger,
		met:   sink,
		state: utils.NewAtomic(StateIdle),
		buf:   buffer.New(cfg.DeltaBufferCapacity, logger),
		done:  make(chan struct{}),
	}
}

// Start begins the session's run loop. Safe to call once; a second
// call is a no-op, matching NotificationForwarder.Start's idempotence.
func (s *Session) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.execCtx, s.cancel = context.WithTimeout(parent, s.cfg.SessionTimeout)
	s.executing.Add(1)

	if s.met != nil {
		s.met.SessionsActive.Add(1)
	}

	go s.run()
}

// Stop cancels the session and blocks until its goroutine has
// returned. Any deltas buffered mid-transfer stay in this session's
// s.buf; a session started by a later Trigger gets its own empty
// buffer and does not replay them.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.executing.Wait()
}

// Done returns a channel closed when the session reaches a terminal
// state (Idle after Replaying, or Failed).
func (s *Session) Done() <-chan struct{} { return s.done }

// Result returns the session's summary. Only meaningful after Done()
// has been closed.
func (s *Session) Result() SyncResult {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	return s.result
}

func (s *Session) setState(st State) {
	s.state.Set(st)
}

// State reports the session's current state. Lock-free since callers
// (notably tests and logging) poll it from outside the run loop while
// s.mu guards only start/stop bookkeeping.
func (s *Session) State() State {
	return s.state.Get()
}

func (s *Session) run() {
	defer s.executing.Done()
	defer close(s.done)
	defer func() {
		if s.met != nil {
			s.met.SessionsActive.Add(-1)
		}
	}()

	start := time.Now()
	ctx := s.execCtx

	result, failErr := s.drive(ctx)
	if failErr != nil {
		if s.log != nil {
			s.log.Warn("sync session failed",
				zap.Stringer("peer", s.deps.NodeID),
				zap.String("reason", failErr.Reason.String()),
				zap.Error(failErr.Cause),
			)
		}
		s.setState(StateFailed)
		result = newResult(StateFailed, failErr.Reason, result.EntitiesMerged, result.EntitiesFailed, start)
	} else {
		s.setState(StateIdle)
		result.DurationMS = time.Since(start).Milliseconds()
	}

	if s.met != nil {
		s.met.SessionDuration.Observe(float64(result.DurationMS) / 1000)
	}

	s.resultMu.Lock()
	s.result = result
	s.resultMu.Unlock()
}

// drive runs Handshake -> Negotiating -> Transferring -> Replaying and
// returns the accumulated SyncResult plus a non-nil *FailedError if any
// stage terminated the session early. While Transferring, deltas that
// arrive over other inbound channels for this context are diverted
// into s.buf by the caller (via BufferDelta) rather than applied
// directly, so the DAG is not mutated by two different code paths
// concurrently during a state-based sync.
func (s *Session) drive(ctx context.Context) (SyncResult, *FailedError) {
	s.setState(StateHandshake)
	hctx, cancel := context.WithTimeout(ctx, s.cfg.MessageTimeout)
	localHS := s.buildHandshake()
	remoteResp, err := s.deps.Transport.Handshake(hctx, localHS)
	cancel()
	if err != nil {
		return SyncResult{}, failedf(reasonForTransportErr(ctx, err), err)
	}

	// Protocol selection runs on the responder side (see selection.go)
	// and its result travels back on SyncHandshakeResponse.SelectedProtocol
	// — the initiator only acts on it, it never re-derives its own
	// answer from partial information.
	s.setState(StateNegotiating)
	protocol := remoteResp.SelectedProtocol
	if protocol == wire.ProtocolNone {
		return SyncResult{Status: StateIdle, SelectedProtocol: protocol.String()}, nil
	}

	s.setState(StateTransferring)
	merged, failed, failErr := s.transfer(ctx, protocol, remoteResp.RootHash)
	if failErr != nil {
		return SyncResult{EntitiesMerged: merged, EntitiesFailed: failed}, failErr
	}

	s.setState(StateReplaying)
	if err := buffer.ReplayInto(s.buf, func(d model.BufferedDelta) error {
		_, err := s.deps.DAG.Insert(d)
		return err
	}); err != nil {
		return SyncResult{EntitiesMerged: merged, EntitiesFailed: failed}, failedf(ReasonProtocolError, err)
	}

	return SyncResult{
		Status:           StateIdle,
		EntitiesMerged:   merged,
		EntitiesFailed:   failed,
		SelectedProtocol: protocol.String(),
	}, nil
}

func (s *Session) buildHandshake() wire.SyncHandshake {
	heads := s.deps.DAG.Heads()
	return wire.SyncHandshake{
		Version:            wire.ProtocolVersion,
		RootHash:           s.deps.Index.RootHash(),
		EntityCount:        uint64(s.deps.Index.Len()),
		MaxDepth:           uint32(s.deps.Index.Depth()),
		DagHeads:           heads,
		HasState:           !s.deps.Index.IsEmpty(),
		SupportedProtocols: allProtocols,
	}
}

var allProtocols = []wire.ProtocolTag{
	wire.ProtocolDelta,
	wire.ProtocolHashComparison,
	wire.ProtocolBloomFilter,
	wire.ProtocolSubtreePrefetch,
	wire.ProtocolLevelWise,
	wire.ProtocolSnapshot,
}

// transfer runs the chosen strategy engine to completion, tracking a
// merge failure budget: if more than cfg.MaxMergeFailureFraction of
// attempted merges fail, the session aborts rather than reporting a
// partially-applied success.
func (s *Session) transfer(ctx context.Context, protocol wire.ProtocolTag, remoteRoot model.Hash) (merged, failed int, failErr *FailedError) {
	failureKinds := bag.New[string]()
	fallbackLogged := make(map[model.EntityId]bool)

	merger := strategy.EntityMerger{
		Index:  s.deps.Index,
		WasmCB: s.deps.WasmCB,
		Store:  s.deps.Store,
		OnFallback: func(id model.EntityId) {
			if fallbackLogged[id] {
				return
			}
			fallbackLogged[id] = true
			if s.log != nil {
				s.log.Warn("entity merged via LWW fallback, no crdt_type set", zap.Stringer("entity", id))
			}
		},
		OnMergeError: func(err error) {
			var mergeErr *crdt.MergeError
			if errors.As(err, &mergeErr) {
				failureKinds.Add(string(mergeErr.Kind))
				return
			}
			failureKinds.Add("unknown")
		},
	}

	var stats strategy.Stats
	var err error

	switch protocol {
	case wire.ProtocolDelta:
		stats, err = strategy.RunDeltaInitiator(ctx, s.deps.Transport, s.deps.DAG.MissingDeltaIDs(), s.deps.DAG)
		if errors.Is(err, strategy.ErrUnresolvedParent) {
			// The responder's deltas reference a parent this node still
			// doesn't have: the causal gap is wider than MissingDeltaIDs
			// captured. Escalate to HashComparison exactly once rather
			// than re-requesting deltas against a DAG that cannot apply
			// them yet.
			if s.met != nil {
				s.met.DeltaEscalated.Inc()
			}
			if s.log != nil {
				s.log.Warn("delta sync response referenced an unresolved parent, escalating to hash comparison",
					zap.Stringer("peer", s.deps.NodeID),
				)
			}
			hcStats, hcErr := strategy.RunHashComparisonInitiator(ctx, s.deps.Transport, merger, remoteRoot)
			stats.EntitiesMerged += hcStats.EntitiesMerged
			stats.EntitiesFailed += hcStats.EntitiesFailed
			err = hcErr
		}
	case wire.ProtocolHashComparison:
		stats, err = strategy.RunHashComparisonInitiator(ctx, s.deps.Transport, merger, remoteRoot)
	case wire.ProtocolBloomFilter:
		stats, err = strategy.RunBloomFilterInitiator(ctx, s.deps.Transport, merger, s.cfg.BloomTargetFPR)
	case wire.ProtocolSubtreePrefetch:
		stats, err = strategy.RunSubtreePrefetchInitiator(ctx, s.deps.Transport, merger, []model.Hash{remoteRoot})
	case wire.ProtocolLevelWise:
		stats, err = strategy.RunLevelWiseInitiator(ctx, s.deps.Transport, merger, remoteRoot)
	case wire.ProtocolSnapshot:
		stats, err = strategy.RunSnapshotInitiator(ctx, s.deps.Transport, merger, false)
		if errors.Is(err, strategy.ErrVerificationFailed) {
			// A snapshot whose root does not verify ends the session;
			// nothing was written to the index.
			if s.met != nil {
				s.met.VerificationFailures.Inc()
			}
			return 0, 0, failedf(ReasonVerificationFailed, err)
		}
		if err != nil {
			// Safety refusal (non-empty local index) or a failed
			// transfer: downgrade to HashComparison rather than failing
			// the session outright.
			if s.met != nil {
				s.met.SnapshotBlocked.Inc()
			}
			if s.log != nil {
				s.log.Warn("snapshot refused or failed, downgrading to hash comparison", zap.Error(err))
			}
			stats, err = strategy.RunHashComparisonInitiator(ctx, s.deps.Transport, merger, remoteRoot)
		}
	}

	if s.met != nil {
		s.met.EntitiesMerged.Add(int64(stats.EntitiesMerged))
		s.met.EntitiesFailed.Add(int64(stats.EntitiesFailed))
	}

	if err != nil {
		return stats.EntitiesMerged, stats.EntitiesFailed, failedf(ReasonTransportError, err)
	}

	total := stats.EntitiesMerged + stats.EntitiesFailed
	if total > 0 && float64(stats.EntitiesFailed)/float64(total) > s.cfg.MaxMergeFailureFraction {
		if s.log != nil && failureKinds.Len() > 0 {
			mode, count := failureKinds.Mode()
			s.log.Warn("merge failure budget exceeded",
				zap.Int("total_failed", stats.EntitiesFailed),
				zap.String("dominant_kind", mode),
				zap.Int("dominant_kind_count", count),
			)
		}
		return stats.EntitiesMerged, stats.EntitiesFailed, failedf(ReasonMergeBudgetExceeded, nil)
	}

	return stats.EntitiesMerged, stats.EntitiesFailed, nil
}

// BufferDelta diverts a delta arriving on another inbound stream into
// this session's buffer instead of applying it directly, per the
// Transferring state's isolation rule. It is a no-op once the session
// has left Transferring.
func (s *Session) BufferDelta(d model.CausalDelta) {
	if s.State() != StateTransferring {
		return
	}
	s.buf.Push(d)
}

func reasonForTransportErr(ctx context.Context, err error) Reason {
	if ctx.Err() != nil {
		return ReasonCancelled
	}
	return ReasonTransportError
}

// estimateDivergenceRatio approximates the fraction of differing
// leaves from the two sides' entity counts alone. A tighter estimate
// would sample random tree paths and compare hashes at each depth, but
// no wire message exists for requesting an arbitrary sampled path
// independent of TreeNode/LevelWise traffic, so this estimate uses only
// the handshake's entity_count fields.
func estimateDivergenceRatio(localCount, remoteCount uint64) float64 {
	if localCount == 0 && remoteCount == 0 {
		return 0
	}
	diff := localCount - remoteCount
	if remoteCount > localCount {
		diff = remoteCount - localCount
	}
	denom := localCount
	if remoteCount > denom {
		denom = remoteCount
	}
	return float64(diff) / float64(denom)
}
