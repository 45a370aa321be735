// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/log"

	"github.com/luxfi/hybridsync/model"
)

func delta(payload string) model.BufferedDelta {
	return model.CausalDelta{Payload: []byte(payload)}
}

func TestPushNeverDrops(t *testing.T) {
	b := New(2, log.NewNoOpLogger())
	for i := 0; i < 10; i++ {
		b.Push(delta("x"))
	}
	require.Equal(t, 10, b.Len(), "buffer must never silently drop deltas past capacity")
}

func TestDrainReturnsFIFOOrderAndEmpties(t *testing.T) {
	b := New(10, log.NewNoOpLogger())
	b.Push(delta("a"))
	b.Push(delta("b"))
	b.Push(delta("c"))

	drained := b.Drain()
	require.Len(t, drained, 3)
	require.Equal(t, "a", string(drained[0].Payload))
	require.Equal(t, "c", string(drained[2].Payload))
	require.Equal(t, 0, b.Len())
}

func TestReplayIntoStopsAtFirstError(t *testing.T) {
	b := New(10, log.NewNoOpLogger())
	b.Push(delta("a"))
	b.Push(delta("b"))

	var seen []string
	sentinel := errors.New("boom")
	err := ReplayInto(b, func(d model.BufferedDelta) error {
		seen = append(seen, string(d.Payload))
		if string(d.Payload) == "b" {
			return sentinel
		}
		return nil
	})

	require.ErrorIs(t, err, sentinel)
	require.Equal(t, []string{"a", "b"}, seen)
	require.Equal(t, 1, b.Len(), "the failing delta must remain buffered, not be dropped")

	drained := b.Drain()
	require.Len(t, drained, 1)
	require.Equal(t, "b", string(drained[0].Payload), "the failing delta must still be first for the next replay attempt")
}

func TestReplayIntoRetriesAfterFailure(t *testing.T) {
	b := New(10, log.NewNoOpLogger())
	b.Push(delta("a"))
	b.Push(delta("b"))
	b.Push(delta("c"))

	sentinel := errors.New("boom")
	failOnce := true
	var firstPass []string
	err := ReplayInto(b, func(d model.BufferedDelta) error {
		firstPass = append(firstPass, string(d.Payload))
		if string(d.Payload) == "b" && failOnce {
			failOnce = false
			return sentinel
		}
		return nil
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, []string{"a", "b"}, firstPass)
	require.Equal(t, 2, b.Len(), "b and c must still be buffered after the failed attempt")

	var secondPass []string
	err = ReplayInto(b, func(d model.BufferedDelta) error {
		secondPass = append(secondPass, string(d.Payload))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, secondPass, "retry must resume from the delta that failed, in order")
	require.Equal(t, 0, b.Len())
}
