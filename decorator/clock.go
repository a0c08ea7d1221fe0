package decorator

import "time"

// Clock is a monotone timestamp source. Tests can swap it for a
// deterministic counter.
type Clock func() int64

// SystemClock returns the current time in nanoseconds since the epoch.
func SystemClock() int64 { return time.Now().UnixNano() }
