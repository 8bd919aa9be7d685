package interrupt

import (
	"context"
	"fmt"
	"os/signal"
)

// WithData is the Go rendering of the original's
// KeyboardInterruptWithDataException: a cancellation carrying a structured
// partial-result payload, so that a phase boundary can compose a complete
// result before re-raising to its own caller. It replaces the original's
// exception subclass with a generic tagged error, per SPEC_FULL.md §9
// ("Carried partial-result exceptions").
type WithData[T any] struct {
	// Data is the partial result accumulated up to the point of
	// cancellation.
	Data T
	// Cause is the context error that triggered cancellation (normally
	// context.Canceled).
	Cause error
}

// Error implements the error interface.
func (e *WithData[T]) Error() string {
	return fmt.Sprintf("interrupted: %v", e.Cause)
}

// Unwrap allows errors.Is(err, context.Canceled) to see through WithData.
func (e *WithData[T]) Unwrap() error {
	return e.Cause
}

// NewWithData constructs a WithData error carrying data, attributing the
// cancellation to cause.
func NewWithData[T any](data T, cause error) *WithData[T] {
	return &WithData[T]{Data: data, Cause: cause}
}

// Watch returns a context derived from parent that is canceled when a
// termination signal arrives, along with a stop function that must be
// called to release the underlying signal notification once the watch is
// no longer needed. Safe points in the Indexer and Synchronizer poll
// ctx.Err() between iterations to decide when to unwind and return a
// WithData error. A signal that arrives inside a Mask'd region also cancels
// this context at once; the masked section itself does not poll ctx, so it
// still runs to completion before the next safe point observes the
// cancellation.
func Watch(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, TerminationSignals...)
}
