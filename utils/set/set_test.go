// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package set

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetAddAndList(t *testing.T) {
	s := NewSet[int](0)
	s.Add(1, 2, 2, 3)
	require.ElementsMatch(t, []int{1, 2, 3}, s.List())
}

func TestSetRemove(t *testing.T) {
	s := NewSet[int](0)
	s.Add(1, 2, 3)
	s.Remove(2)
	require.ElementsMatch(t, []int{1, 3}, s.List())
}

func TestSetAddOnZeroValue(t *testing.T) {
	var s Set[int]
	s.Add(1)
	require.ElementsMatch(t, []int{1}, s.List())
}
