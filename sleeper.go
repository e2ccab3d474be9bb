package streamio

import "time"

// Sleeper is the wait primitive used between read attempts. The retry and
// classification logic never calls time.Sleep directly; substituting a
// Sleeper changes how the loop waits without changing when it waits.
type Sleeper interface {
	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// timeSleeper is the default Sleeper backed by time.Sleep.
type timeSleeper struct{}

func (timeSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}

// defaultSleeper returns the blocking time.Sleep based Sleeper.
func defaultSleeper() Sleeper {
	return timeSleeper{}
}
