// Package interrupt provides the scoped interrupt-masking primitive used to
// bracket the critical sections described in SPEC_FULL.md §4.6: the staging
// prelude/postlude, revert, index commits, and each per-file reindex step.
//
// It is the Go rendering of the original implementation's
// delay_keyboard_interrupt context manager (original_source/iku/tools.py),
// generalized from signal.signal(SIGINT, ...) swapping into signal.Notify
// capture-and-replay, and grounded on the teacher's own enumeration of
// termination signals (cmd/signals.go, cmd/signals_posix.go).
package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// TerminationSignals are the signals considered to request termination.
// SIGINT and SIGTERM mirror the teacher's cmd.TerminationSignals list.
var TerminationSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
}

// Controller masks and replays termination signals around critical sections.
// The zero value is ready to use; a single Controller is meant to be shared
// by one synchronization run and is not meant for concurrent masked regions
// (mirroring the single-threaded, single-staging-region model of the rest of
// the package).
type Controller struct {
	mu sync.Mutex
	// masked indicates whether a region is currently active.
	masked bool
	// pending holds a signal captured while masked, if any.
	pending os.Signal
}

// Mask begins a critical section within which termination signals are
// captured rather than delivered. It returns a closure that must be called
// to end the section; on return, if a signal was captured during the
// section, the process is re-signaled with it so that normal (e.g. Go
// runtime or outer shell) handling resumes exactly as if the signal had
// arrived immediately after the section ended.
//
// Regions do not nest, and Mask does not detect a nested call: a second
// Mask on the same Controller while a region is open discards any signal
// the outer region already captured, and once the inner region ends Masked
// reports false even though the outer region is still open.
func (c *Controller) Mask() func() {
	c.mu.Lock()
	c.masked = true
	c.pending = nil
	c.mu.Unlock()

	incoming := make(chan os.Signal, 1)
	signal.Notify(incoming, TerminationSignals...)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-incoming:
			c.mu.Lock()
			c.pending = sig
			c.mu.Unlock()
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(incoming)

		c.mu.Lock()
		c.masked = false
		pending := c.pending
		c.pending = nil
		c.mu.Unlock()

		if pending != nil {
			replay(pending)
		}
	}
}

// replay re-delivers a captured signal to the current process so that its
// normal effect (typically process termination) proceeds.
func replay(sig os.Signal) {
	if process, err := os.FindProcess(os.Getpid()); err == nil {
		process.Signal(sig)
	}
}

// Masked reports whether a masked region is currently active. It exists
// primarily for tests that need to assert masking actually bracketed a
// section.
func (c *Controller) Masked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masked
}
