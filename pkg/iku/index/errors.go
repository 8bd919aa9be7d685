package index

import "errors"

// ErrNotManaged indicates a lookup or mutation was attempted for a relative
// path the index has no record of. Per SPEC_FULL.md §7, this is treated as
// a programming error: callers are expected to check Match or to only
// operate on paths known to be managed.
var ErrNotManaged = errors.New("index: path is not managed")
