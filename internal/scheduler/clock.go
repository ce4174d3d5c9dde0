package scheduler

import "time"

// Clock supplies the current time. Injected so sweeps and claims are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
