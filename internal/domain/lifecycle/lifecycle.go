// Package lifecycle holds shared constants for application start and shutdown.
package lifecycle

import "time"

// DefaultTimeout bounds lifecycle operations such as database pings and
// graceful HTTP shutdown.
const DefaultTimeout = 10 * time.Second
