// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package buffer implements the per-peer delta buffer: a bounded FIFO
// that captures causal deltas arriving on other inbound streams while a
// state-based sync session is in flight for that peer, so they can be
// replayed into the local DAG once the session finishes. It never silently
// drops a delta; Buffer enforces this by growing past its configured
// capacity rather than evicting, logging a warning once utilization
// crosses 80%.
package buffer

import (
	"sync"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/luxfi/hybridsync/model"
	"github.com/luxfi/hybridsync/utils/linked"
)

// warnThresholdNumerator/Denominator express the 80% soft-cap warning
// point without a floating point literal.
const warnThresholdNumerator, warnThresholdDenominator = 4, 5

// Buffer is a bounded FIFO of CausalDelta values for one peer.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	items    *linked.List[model.BufferedDelta]
	warned   bool
	log      log.Logger
}

// New returns an empty Buffer with the given soft capacity. logger may
// be nil, in which case a no-op logger-equivalent is used (Push simply
// skips logging).
func New(capacity int, logger log.Logger) *Buffer {
	return &Buffer{
		capacity: capacity,
		items:    linked.NewList[model.BufferedDelta](),
		log:      logger,
	}
}

// Push appends delta to the buffer. It never drops delta, even past
// capacity; once the buffer's length reaches 80% of capacity it logs a
// warning exactly once, and again only after the buffer later drains
// back below that line and re-crosses it.
func (b *Buffer) Push(delta model.BufferedDelta) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items.PushBack(delta)

	full := b.items.Len()
	threshold := (b.capacity * warnThresholdNumerator) / warnThresholdDenominator
	switch {
	case full >= threshold && !b.warned:
		b.warned = true
		if b.log != nil {
			b.log.Warn("delta buffer approaching capacity",
				zap.Int("length", full),
				zap.Int("capacity", b.capacity),
			)
		}
	case full < threshold:
		b.warned = false
	}
}

// Len returns the number of buffered deltas.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items.Len()
}

// Drain removes and returns every buffered delta, in FIFO order,
// leaving the buffer empty.
func (b *Buffer) Drain() []model.BufferedDelta {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.BufferedDelta, 0, b.items.Len())
	for node := b.items.Front(); node != nil; node = node.Next {
		out = append(out, node.Value)
	}
	b.items.Clear()
	b.warned = false
	return out
}

// popFront removes and returns the oldest buffered delta, if any.
func (b *Buffer) popFront() (model.BufferedDelta, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	front := b.items.Front()
	if front == nil {
		var zero model.BufferedDelta
		return zero, false
	}
	b.items.Remove(front)
	return front.Value, true
}

// pushFront puts delta back at the front of the buffer, restoring FIFO
// order for a delta popped but not yet successfully inserted.
func (b *Buffer) pushFront(delta model.BufferedDelta) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items.PushFront(delta)
}

// ReplayInto calls insert for every buffered delta in FIFO order,
// removing each one from b only after insert succeeds for it. On the
// first error, replay stops and the failing delta and everything after
// it remain buffered, untouched, for a later call to retry — no delta
// is ever removed from b without either having been successfully
// inserted or still being present to try again.
func ReplayInto(b *Buffer, insert func(model.BufferedDelta) error) error {
	for {
		delta, ok := b.popFront()
		if !ok {
			return nil
		}
		if err := insert(delta); err != nil {
			b.pushFront(delta)
			return err
		}
	}
}
