// Package must provides best-effort wrappers around operations whose errors
// are expected but not actionable (e.g. cleaning up a temporary file after a
// failure already being reported through another path). Grounded on the
// teacher's pkg/must.
package must

import (
	"io"

	"github.com/terraytm/iku/pkg/iku/logging"
)

// Close closes c, logging a warning if it fails.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %v", err)
	}
}
