package utils

import "time"

// Timer measures one span of wall-clock time. NewTimer starts it; Stop
// freezes the elapsed duration.
type Timer struct {
	startTime time.Time
	duration  time.Duration
	stopped   bool
}

func NewTimer() *Timer {
	return &Timer{startTime: time.Now()}
}

// Stop records the time elapsed since NewTimer. Only the first call counts.
func (t *Timer) Stop() {
	if t.stopped {
		return
	}
	t.duration = time.Since(t.startTime)
	t.stopped = true
}

// GetDuration returns the frozen duration, or the running one before Stop.
func (t *Timer) GetDuration() time.Duration {
	if !t.stopped {
		return time.Since(t.startTime)
	}
	return t.duration
}

// Milliseconds is GetDuration as fractional milliseconds, the unit of the
// duration histograms.
func (t *Timer) Milliseconds() float64 {
	return float64(t.GetDuration()) / float64(time.Millisecond)
}
