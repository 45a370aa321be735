// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wasmcb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoOpReturnsNoExportErrors(t *testing.T) {
	var rt Runtime = NoOp{}
	_, err := rt.Merge(context.Background(), "geo.point", nil, nil)
	require.ErrorIs(t, err, ErrNoCustomExport)

	_, err = rt.MergeRootState(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrNoRootStateExport)
}

func TestStaticRegistryDispatchesByTypeName(t *testing.T) {
	reg := NewStaticRegistry()
	reg.Exports["geo.point"] = func(local, remote []byte) ([]byte, error) {
		return append(local, remote...), nil
	}

	out, err := reg.Merge(context.Background(), "geo.point", []byte("a"), []byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("ab"), out)
}

func TestStaticRegistryUnknownTypeErrors(t *testing.T) {
	reg := NewStaticRegistry()
	_, err := reg.Merge(context.Background(), "unknown", nil, nil)
	require.ErrorIs(t, err, ErrNoCustomExport)
}
