// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import "errors"

var (
	// ErrUnknownTag is returned when a frame's tag is not one this
	// build of the protocol recognizes. A protocol error: the session
	// fails with no state change.
	ErrUnknownTag = errors.New("wire: unknown message tag")

	// ErrFrameTooLarge guards against a peer claiming an absurd frame
	// length, which would otherwise make ReadFrame allocate unbounded
	// memory before the read even fails.
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")
)

// MaxFrameSize bounds a single frame's payload length. Snapshot pages
// are the largest legitimate message; page size is configured well
// under this (config.Parameters.SnapshotPageSize), so this is a safety
// backstop against a malicious or corrupted length field, not a normal
// operating limit.
const MaxFrameSize = 64 * 1024 * 1024
