// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bloomfilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddThenMightContain(t *testing.T) {
	f := New(100, 0.01)
	f.Add([]byte("entity-1"))
	require.True(t, f.MightContain([]byte("entity-1")))
}

func TestMightContainFalseForNeverAdded(t *testing.T) {
	f := New(100, 0.01)
	f.Add([]byte("entity-1"))
	require.False(t, f.MightContain([]byte("entity-2")))
}

func TestIdenticalInputsProduceIdenticalEncodings(t *testing.T) {
	a := New(10, 0.01)
	a.Add([]byte("x"))
	b := New(10, 0.01)
	b.Add([]byte("x"))

	require.Equal(t, a.Encode(), b.Encode(), "two independent filters over the same input must agree bit-for-bit")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := New(50, 0.02)
	f.Add([]byte("a"))
	f.Add([]byte("b"))

	decoded, err := Decode(f.Encode())
	require.NoError(t, err)
	require.True(t, decoded.MightContain([]byte("a")))
	require.True(t, decoded.MightContain([]byte("b")))
	require.Equal(t, f.Encode(), decoded.Encode())
}

func TestSizeScalesWithN(t *testing.T) {
	smallBits, _ := Size(10, 0.01)
	largeBits, _ := Size(1000, 0.01)
	require.Less(t, smallBits, largeBits)
}

func TestSizeHashCountAtLeastOne(t *testing.T) {
	_, numHash := Size(1, 0.5)
	require.GreaterOrEqual(t, numHash, uint32(1))
}
