// ABOUTME: Error values returned by the collector
// ABOUTME: Sentinels for allocation/handle failures and typed finalizer/invariant errors

package gc

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is returned when storage cannot satisfy an allocation,
	// even after a full collection.
	ErrOutOfMemory = errors.New("gc: out of memory")

	// ErrStaleHandle is returned for handles whose object has been freed.
	ErrStaleHandle = errors.New("gc: stale handle")

	// ErrReentrant is returned when a collection is requested while one is
	// already running, for example from inside a finalizer.
	ErrReentrant = errors.New("gc: collector is already running")

	// ErrNotFinalizable is returned when a finalizer is attached to an
	// object kind that cannot carry one.
	ErrNotFinalizable = errors.New("gc: object cannot carry a finalizer")

	// ErrClosed is returned by operations on a closed collector.
	ErrClosed = errors.New("gc: collector closed")

	// ErrInvariant marks a black object found referencing a white one.
	ErrInvariant = errors.New("gc: tri-color invariant violated")
)

// FinalizerError records a finalizer that returned an error or panicked.
// It never aborts the finalize phase.
type FinalizerError struct {
	Object Handle
	Tag    Tag
	Err    error
}

func (e *FinalizerError) Error() string {
	return fmt.Sprintf("gc: finalizer for %s %s: %v", e.Tag, e.Object, e.Err)
}

func (e *FinalizerError) Unwrap() error { return e.Err }

// InvariantError describes a reference that breaks the tri-color invariant.
// It indicates a missing write barrier.
type InvariantError struct {
	Phase    Phase
	Owner    Handle
	Referent Handle
	Reason   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("gc: invariant violated in %s: %s -> %s (%s)", e.Phase, e.Owner, e.Referent, e.Reason)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }
