package sweep

import "time"

// Clock supplies the delays between sweeps. Tests swap in a manual clock to
// drive ticks without waiting on wall time.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
