// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultParametersValid(t *testing.T) {
	require.NoError(t, DefaultParameters().Validate())
}

func TestPresetsValid(t *testing.T) {
	require.NoError(t, MainnetParameters().Validate())
	require.NoError(t, LocalParameters().Validate())
}

func TestBuilderFromPreset(t *testing.T) {
	p, err := NewBuilder().FromPreset(MainnetNetwork).Build()
	require.NoError(t, err)
	require.Equal(t, MainnetParameters(), p)
}

func TestBuilderUnknownPreset(t *testing.T) {
	_, err := NewBuilder().FromPreset(NetworkType("nonexistent")).Build()
	require.Error(t, err)
}

func TestBuilderWithTimeoutsRejectsSessionBelowMessage(t *testing.T) {
	_, err := NewBuilder().WithTimeouts(time.Second, 5*time.Second, time.Second).Build()
	require.ErrorContains(t, err, "session timeout")
}

func TestBuilderWithDivergenceRatiosRejectsOutOfOrder(t *testing.T) {
	_, err := NewBuilder().WithDivergenceRatios(0.9, 0.1).Build()
	require.Error(t, err)
}

func TestBuilderChaining(t *testing.T) {
	p, err := NewBuilder().
		WithDeltaSyncThreshold(25).
		WithBloomTargetFPR(0.02).
		WithSnapshotPageSize(128).
		Build()
	require.NoError(t, err)
	require.Equal(t, 25, p.DeltaSyncThreshold)
	require.Equal(t, 0.02, p.BloomTargetFPR)
	require.Equal(t, 128, p.SnapshotPageSize)
}

func TestBuilderStopsAtFirstError(t *testing.T) {
	_, err := NewBuilder().
		WithDeltaSyncThreshold(-1).
		WithBloomTargetFPR(0.5). // should be a no-op, error already set
		Build()
	require.ErrorContains(t, err, "delta sync threshold")
}
