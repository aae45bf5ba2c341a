package di

import (
	"sync/atomic"
	"time"
)

// ColdStartTracker records when the process started and whether the first
// request has been served yet. Lambda logs use it to tag cold starts.
type ColdStartTracker struct {
	startedAt time.Time
	served    atomic.Bool
}

// NewColdStartTracker creates a tracker starting now.
func NewColdStartTracker() *ColdStartTracker {
	return &ColdStartTracker{startedAt: time.Now()}
}

// GetTimeSinceColdStart returns the time since the process started.
func (t *ColdStartTracker) GetTimeSinceColdStart() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.startedAt)
}

// MarkRequest records a served request and reports whether it was the first.
func (t *ColdStartTracker) MarkRequest() bool {
	return t != nil && t.served.CompareAndSwap(false, true)
}

// ProvideColdStartTracker creates a cold start tracker for Wire.
func ProvideColdStartTracker() *ColdStartTracker {
	return NewColdStartTracker()
}
