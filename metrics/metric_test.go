// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegistryWiresCounterToPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	c, err := r.NewCounter("test_counter", "a test counter")
	require.NoError(t, err)
	c.Add(3)
	require.Equal(t, int64(3), c.Read())

	got, err := r.GetCounter("test_counter")
	require.NoError(t, err)
	require.Same(t, c, got)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "test_counter", families[0].GetName())
	require.InDelta(t, 3, families[0].GetMetric()[0].GetCounter().GetValue(), 0)
}

func TestRegistryWiresGaugeToPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	g, err := r.NewGauge("test_gauge", "a test gauge")
	require.NoError(t, err)
	g.Set(5)
	g.Add(-2)
	require.Equal(t, float64(3), g.Read())

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.InDelta(t, 3, families[0].GetMetric()[0].GetGauge().GetValue(), 0)
}

func TestRegistryDuplicateNameFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	_, err := r.NewCounter("dup", "first")
	require.NoError(t, err)

	_, err = r.NewCounter("dup", "second")
	require.Error(t, err)
}

func TestRegistryGetUnknownNameFails(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.GetCounter("missing")
	require.Error(t, err)
	_, err = r.GetGauge("missing")
	require.Error(t, err)
	_, err = r.GetAverager("missing")
	require.Error(t, err)
}

func TestNewSinkUsesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewSink(reg)
	require.NoError(t, err)

	sink.EntitiesMerged.Add(2)

	got, err := sink.Registry.GetCounter("sync_entities_merged_total")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Read())

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
