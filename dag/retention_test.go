// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/hybridsync/model"
)

func TestCollectGarbageSkipsHeadsAndUnknownAge(t *testing.T) {
	d := New()
	root := mkDelta("root")
	_, err := d.Insert(root)
	require.NoError(t, err)

	child := mkDelta("child", root.ID)
	_, err = d.Insert(child)
	require.NoError(t, err)

	now := time.Unix(1000, 0)
	appliedAt := map[model.DeltaId]time.Time{
		root.ID: now.Add(-time.Hour),
		// child has no recorded applied-at time and is also the current head.
	}

	removed := d.CollectGarbage(AgeBasedRetentionPolicy{MaxAge: time.Minute}, appliedAt, now)
	require.Equal(t, 1, removed, "root is old and not a head, so it is collected")
	require.False(t, d.Contains(root.ID))
	require.True(t, d.Contains(child.ID), "child is the current head and must survive")
}

func TestRetainForeverNeverCollects(t *testing.T) {
	d := New()
	root := mkDelta("root")
	_, err := d.Insert(root)
	require.NoError(t, err)
	child := mkDelta("child", root.ID)
	_, err = d.Insert(child)
	require.NoError(t, err)

	now := time.Unix(1000, 0)
	appliedAt := map[model.DeltaId]time.Time{root.ID: now.Add(-24 * time.Hour)}

	removed := d.CollectGarbage(RetainForever{}, appliedAt, now)
	require.Equal(t, 0, removed)
}
