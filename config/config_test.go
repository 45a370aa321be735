// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultDivergenceRatiosMatchSpecThresholds(t *testing.T) {
	p := DefaultParameters()
	require.Equal(t, 0.10, p.DivergenceRatioBloomFilter)
	require.Equal(t, 0.20, p.DivergenceRatioSubtreePrefetch)
}
