// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package syncmanager

import (
	"errors"
	"fmt"
)

// Reason classifies why a session ended in the terminal Failed state.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTimeout
	ReasonProtocolError
	ReasonVerificationFailed
	ReasonTransportError
	ReasonMergeBudgetExceeded
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTimeout:
		return "timeout"
	case ReasonProtocolError:
		return "protocol_error"
	case ReasonVerificationFailed:
		return "verification_failed"
	case ReasonTransportError:
		return "transport_error"
	case ReasonMergeBudgetExceeded:
		return "merge_budget_exceeded"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrSessionFailed is the sentinel every FailedError wraps, so callers
// can test errors.Is(err, ErrSessionFailed) without caring which Reason
// produced it.
var ErrSessionFailed = errors.New("syncmanager: session failed")

// FailedError carries the reason and any underlying cause for a
// session's terminal Failed state.
type FailedError struct {
	Reason Reason
	Cause  error
}

func (e *FailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sync session failed (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("sync session failed (%s)", e.Reason)
}

func (e *FailedError) Unwrap() error { return ErrSessionFailed }

func failedf(reason Reason, cause error) *FailedError {
	return &FailedError{Reason: reason, Cause: cause}
}
