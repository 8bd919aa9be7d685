// Package progress defines the zero-argument progress callback consumed by
// the Indexer (Phase 1) and Synchronizer (Phase 2), per SPEC_FULL.md §6.
// Concrete terminal rendering lives in cmd/iku, which adapts a Callback onto
// an mpb progress bar; this package only fixes the shape and supplies the
// silent no-op.
package progress

// Callback is invoked once per processed item. Implementations must be
// cheap and must not block, since it is called on the single synchronize
// thread.
type Callback func()

// Silent returns a Callback that does nothing, used when Config.Silent is
// set.
func Silent() Callback {
	return func() {}
}

// Chain returns a Callback that invokes each of callbacks in order,
// skipping any that are nil, so that one progress event can drive several
// consumers.
func Chain(callbacks ...Callback) Callback {
	return func() {
		for _, callback := range callbacks {
			if callback != nil {
				callback()
			}
		}
	}
}
