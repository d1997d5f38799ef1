package monitor

import (
	"sync"
	"time"
)

// GCMonitor tracks badger value-log GC health and failures. "No rewrite
// needed" counts as success; only real GC errors mark the loop unhealthy.
type GCMonitor struct {
	mu                sync.RWMutex
	lastSuccess       time.Time
	lastAttempt       time.Time
	consecutiveErrors int
	lastError         string
}

// RecordSuccess records a completed GC pass.
func (gm *GCMonitor) RecordSuccess() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.lastSuccess = time.Now()
	gm.lastAttempt = time.Now()
	gm.consecutiveErrors = 0
	gm.lastError = ""
}

// RecordFailure records a failed GC pass.
func (gm *GCMonitor) RecordFailure(err error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.lastAttempt = time.Now()
	gm.consecutiveErrors++
	if err != nil {
		gm.lastError = err.Error()
	}
}

// IsHealthy returns true if the GC loop is working properly. The loop starts
// healthy: before the first pass there is nothing to reclaim yet. More than
// 3 consecutive failures marks it unhealthy.
func (gm *GCMonitor) IsHealthy() bool {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.healthyLocked()
}

func (gm *GCMonitor) healthyLocked() bool {
	return gm.consecutiveErrors <= 3
}

// GCStatus is the GC portion of the health check response.
type GCStatus struct {
	Healthy           bool   `json:"healthy"`
	LastSuccess       string `json:"last_success,omitempty"`
	TimeSinceSuccess  string `json:"time_since_success,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns current GC status for health checks.
func (gm *GCMonitor) Status() GCStatus {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	status := GCStatus{
		Healthy: gm.healthyLocked(),
	}

	if !gm.lastSuccess.IsZero() {
		status.LastSuccess = gm.lastSuccess.Format(time.RFC3339)
		status.TimeSinceSuccess = time.Since(gm.lastSuccess).String()
	}

	if !gm.lastAttempt.IsZero() {
		status.LastAttempt = gm.lastAttempt.Format(time.RFC3339)
	}

	if gm.consecutiveErrors > 0 {
		status.ConsecutiveErrors = gm.consecutiveErrors
		status.LastError = gm.lastError
	}

	return status
}
