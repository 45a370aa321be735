// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package kvstore defines the storage interface the sync core runs
// against: opaque byte keys, no transactions, because the core
// already serializes every write through its own locking
// (merkle.Index's RWMutex, dag.DAG's mutex). Any store that satisfies
// Store can back the system; this package also provides an in-memory
// implementation for tests and single-process use.
package kvstore

import (
	"bytes"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get when key is absent.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the opaque byte-oriented persistence interface every
// component in this module is written against. Implementations are
// not required to be transactional; the sync core never depends on
// atomicity across more than one Store call.
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Iter calls fn for every (key, value) pair whose key has the
	// given prefix, in ascending key order, stopping early if fn
	// returns false.
	Iter(prefix []byte, fn func(key, value []byte) bool) error
}

// Memory is an in-process Store backed by a plain map (Iter sorts the
// matching keys on each call), suitable for
// tests and for running a single node without a durable backend.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *Memory) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *Memory) Iter(prefix []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.data[k]
	}
	m.mu.RUnlock()

	for i, k := range keys {
		if !fn([]byte(k), values[i]) {
			break
		}
	}
	return nil
}
