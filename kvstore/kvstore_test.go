// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	v, err := s.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := NewMemory()
	_, err := s.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesKey(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Delete([]byte("a")))
	_, err := s.Get([]byte("a"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIterRespectsPrefixAndOrder(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Put([]byte("entity/b"), []byte("2")))
	require.NoError(t, s.Put([]byte("entity/a"), []byte("1")))
	require.NoError(t, s.Put([]byte("other/x"), []byte("9")))

	var keys []string
	err := s.Iter([]byte("entity/"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	require.NoError(t, err)
	require.Equal(t, []string{"entity/a", "entity/b"}, keys)
}

func TestIterStopsEarly(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))

	count := 0
	err := s.Iter(nil, func(k, v []byte) bool {
		count++
		return false
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
