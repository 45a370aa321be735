// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package syncmanager drives the per-peer sync session state machine:
// handshake, protocol negotiation, strategy-driven transfer, and
// buffered-delta replay. Manager owns one Session per (context, peer)
// key, coalescing concurrent triggers onto whichever session is
// already running rather than starting a second one; sessions for
// different peers proceed independently.
package syncmanager

import (
	"context"
	"sync"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/luxfi/hybridsync/config"
	"github.com/luxfi/hybridsync/metrics"
)

// TriggerReason records why a session was started, carried through for
// logging only — it has no effect on session behavior.
type TriggerReason string

const (
	TriggerTimer              TriggerReason = "timer"
	TriggerDivergenceDetected TriggerReason = "divergence_detected"
	TriggerManual             TriggerReason = "manual"
)

// Manager tracks at most one live Session per Key.
type Manager struct {
	mu       sync.Mutex
	sessions map[Key]*Session

	cfg config.Parameters
	log log.Logger
	met *metrics.Sink
}

// NewManager constructs a Manager. logger and sink may be nil.
func NewManager(cfg config.Parameters, logger log.Logger, sink *metrics.Sink) *Manager {
	return &Manager{
		sessions: make(map[Key]*Session),
		cfg:      cfg,
		log:      logger,
		met:      sink,
	}
}

// Trigger starts a session for key unless one is already running, in
// which case the existing session is returned unchanged and started is
// false — the in-progress session is left to complete rather than
// interrupted or duplicated.
func (m *Manager) Trigger(ctx context.Context, key Key, deps Deps, reason TriggerReason) (session *Session, started bool) {
	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok {
		select {
		case <-existing.Done():
			// Previous session for this key already finished; fall
			// through and replace it below.
		default:
			m.mu.Unlock()
			return existing, false
		}
	}

	s := newSession(deps, m.cfg, m.log, m.met)
	m.sessions[key] = s
	m.mu.Unlock()

	if m.log != nil {
		m.log.Debug("starting sync session", zap.Stringer("peer", deps.NodeID), zap.String("reason", string(reason)))
	}

	s.Start(ctx)
	go m.releaseWhenDone(key, s)

	return s, true
}

// releaseWhenDone removes a finished session from the map once it is
// safe to start a fresh one for the same key on the next Trigger.
func (m *Manager) releaseWhenDone(key Key, s *Session) {
	<-s.Done()
	m.mu.Lock()
	if m.sessions[key] == s {
		delete(m.sessions, key)
	}
	m.mu.Unlock()
}

// Session returns the currently tracked session for key, if any.
func (m *Manager) Session(key Key) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

// StopAll cancels and waits for every tracked session, for orderly node
// shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
