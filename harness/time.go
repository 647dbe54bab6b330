package harness

import "time"

// TimeSource is a monotonic clock. Only differences between two readings
// are meaningful.
type TimeSource interface {
	Now() time.Duration
}

// MonotonicTime reads the runtime's monotonic clock relative to its origin.
type MonotonicTime struct {
	origin time.Time
}

// NewMonotonicTime returns a TimeSource anchored at the current instant.
func NewMonotonicTime() *MonotonicTime {
	return &MonotonicTime{origin: time.Now()}
}

// Now implements TimeSource.
func (m *MonotonicTime) Now() time.Duration {
	return time.Since(m.origin)
}
