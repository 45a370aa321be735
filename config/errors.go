// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrParametersInvalid       = errors.New("invalid sync parameters")
	ErrInvalidDeltaThreshold   = errors.New("delta sync threshold must be >= 1")
	ErrInvalidBloomFPR         = errors.New("bloom target false positive rate must be in (0, 1)")
	ErrSessionTimeoutTooLow    = errors.New("session timeout must be >= message timeout")
	ErrMessageTimeoutTooLow    = errors.New("message timeout must be >= 1ms")
	ErrWasmTimeoutTooLow       = errors.New("wasm callback timeout must be >= 1ms")
	ErrInvalidFailureFraction  = errors.New("max merge failure fraction must be in [0, 1]")
	ErrInvalidSnapshotPageSize = errors.New("snapshot page size must be >= 1")
	ErrInvalidBufferCapacity   = errors.New("delta buffer capacity must be >= 1")
	ErrInvalidDivergenceRatios = errors.New("divergence ratio thresholds must satisfy 0 <= bloom filter < subtree prefetch <= 1")
)
