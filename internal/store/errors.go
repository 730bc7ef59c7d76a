package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackendUnavailable reports that no durable backend is configured.
// It is informational: operations still complete against process
// memory, and callers use it to warn that data is not durable.
var ErrBackendUnavailable = errors.New("store: no durable backend configured")

// WriteError wraps a failure from the underlying set/delete call.
// Nothing is committed for the failing key.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store: write to key %q failed: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CollectionMismatch describes one collection whose read-back count
// disagrees with what was just written.
type CollectionMismatch struct {
	Collection string
	Wrote      int
	ReadBack   int
}

// VerificationError reports that a write call succeeded but the
// post-write read-back disagrees with what was sent. It is surfaced
// distinctly from WriteError because the data may or may not be
// durable; the caller must not report plain success.
type VerificationError struct {
	Mismatches []CollectionMismatch
}

func (e *VerificationError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, fmt.Sprintf("%s: wrote %d, read back %d", m.Collection, m.Wrote, m.ReadBack))
	}
	return "store: write verification failed (" + strings.Join(parts, "; ") + ")"
}
