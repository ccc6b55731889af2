package core

import "time"

// Clock abstracts time for motion pulse trains and protocol waits. The
// step-pulse delay and the two protocol timeouts go through this interface
// so they are swappable per target platform without behavior change.
type Clock interface {
	// Now returns a monotonic timestamp
	Now() time.Time

	// DelayMicros blocks for the given number of microseconds. Motion
	// pulse timing depends on this being reasonably accurate at the
	// hundreds-of-microseconds scale.
	DelayMicros(us uint32)

	// Sleep blocks for the given duration (used by protocol waits)
	Sleep(d time.Duration)
}

// WallClock implements Clock on the host using the system clock.
// DelayMicros spins on the monotonic clock below one millisecond because
// time.Sleep cannot be trusted at that scale.
type WallClock struct{}

func (WallClock) Now() time.Time {
	return time.Now()
}

func (WallClock) DelayMicros(us uint32) {
	d := time.Duration(us) * time.Microsecond
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

func (WallClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
