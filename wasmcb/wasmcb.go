// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wasmcb defines the WASM merge callback boundary for the
// Custom CRDT kind: applications register a runtime that exports a
// `merge(local, remote, type_name)` function and an optional
// `merge_root_state(local, remote)` function. The sync core never
// embeds a WASM engine itself; it only depends on this interface, so
// swapping wasmtime/wasmer/wazero implementations never touches
// package crdt or syncmanager.
package wasmcb

import (
	"context"
	"errors"
	"time"

	"github.com/luxfi/hybridsync/crdt"
)

// ErrNoCustomExport is returned by Merge when the runtime has no
// `merge` export for the given type name. Through Bind, crdt.Merge
// reports it like any other callback error (MergeError reason
// WasmFailed); WasmRequired is reported only when no callback is
// registered at all.
var ErrNoCustomExport = errors.New("wasmcb: runtime has no merge export for type")

// ErrNoRootStateExport is returned by MergeRootState when the runtime
// never exported merge_root_state; callers fall back to whatever
// root-level merge behavior they use when no custom root hook exists.
var ErrNoRootStateExport = errors.New("wasmcb: runtime has no merge_root_state export")

// Runtime is the boundary crdt.Merge calls through for CrdtCustom
// entities. Implementations own their own call timeout; syncmanager
// additionally enforces the session-wide WasmCallbackTimeout as a soft
// deadline around every call, synchronous to completion.
type Runtime interface {
	// Merge invokes the custom merge function registered for typeName.
	// Absent exports return ErrNoCustomExport.
	Merge(ctx context.Context, typeName string, local, remote []byte) ([]byte, error)
	// MergeRootState invokes an optional whole-tree merge hook that
	// runs once per sync session rather than once per entity. Absent
	// exports return ErrNoRootStateExport.
	MergeRootState(ctx context.Context, local, remote []byte) ([]byte, error)
}

// NoOp is a Runtime with no registered exports; every call reports the
// corresponding "no export" error. It exists so code paths that accept
// a nil-able Runtime have a concrete, always-valid zero value to use
// in tests instead of threading nil through every call site.
type NoOp struct{}

func (NoOp) Merge(context.Context, string, []byte, []byte) ([]byte, error) {
	return nil, ErrNoCustomExport
}

func (NoOp) MergeRootState(context.Context, []byte, []byte) ([]byte, error) {
	return nil, ErrNoRootStateExport
}

// StaticRegistry is a Runtime backed by plain Go functions, useful for
// tests that want to exercise the Custom merge path without a real
// WASM engine.
type StaticRegistry struct {
	Exports        map[string]func(local, remote []byte) ([]byte, error)
	RootStateMerge func(local, remote []byte) ([]byte, error)
}

// NewStaticRegistry returns an empty StaticRegistry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{Exports: make(map[string]func(local, remote []byte) ([]byte, error))}
}

func (r *StaticRegistry) Merge(ctx context.Context, typeName string, local, remote []byte) ([]byte, error) {
	fn, ok := r.Exports[typeName]
	if !ok {
		return nil, ErrNoCustomExport
	}
	return fn(local, remote)
}

func (r *StaticRegistry) MergeRootState(ctx context.Context, local, remote []byte) ([]byte, error) {
	if r.RootStateMerge == nil {
		return nil, ErrNoRootStateExport
	}
	return r.RootStateMerge(local, remote)
}

// Bind adapts a Runtime into the crdt.WasmCallback function crdt.Merge
// calls through, enforcing timeout as a soft deadline around every
// invocation — the runtime itself may ignore ctx cancellation (it is a
// foreign WASM call), so Bind returns on whichever of call-completion
// or timeout comes first and reports a timeout error in the latter
// case even if the underlying call is still running.
func Bind(rt Runtime, timeout time.Duration) crdt.WasmCallback {
	return func(ctx context.Context, typeName string, local, remote []byte) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type result struct {
			out []byte
			err error
		}
		done := make(chan result, 1)
		go func() {
			out, err := rt.Merge(ctx, typeName, local, remote)
			done <- result{out, err}
		}()

		select {
		case r := <-done:
			return r.out, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
