// Package utils holds test helpers shared across packages.
package utils

import (
	"runtime"
	"testing"
	"time"
)

// GoroutineLeakDetector fails a test when goroutines started during it are
// still running at the end. Streams, probe fan-outs and servers all spawn
// goroutines that must be gone once their context ends.
type GoroutineLeakDetector struct {
	t             testing.TB
	initialCount  int
	allowedGrowth int
	pollInterval  time.Duration
	settleTimeout time.Duration
}

// NewGoroutineLeakDetector creates a detector reporting to t
func NewGoroutineLeakDetector(t testing.TB) *GoroutineLeakDetector {
	return &GoroutineLeakDetector{
		t:             t,
		pollInterval:  20 * time.Millisecond,
		settleTimeout: 2 * time.Second,
	}
}

// SetAllowedGrowth sets how many extra goroutines Check tolerates
func (d *GoroutineLeakDetector) SetAllowedGrowth(n int) *GoroutineLeakDetector {
	d.allowedGrowth = n
	return d
}

// SetSettleTimeout sets how long Check waits for goroutines to exit
func (d *GoroutineLeakDetector) SetSettleTimeout(timeout time.Duration) *GoroutineLeakDetector {
	d.settleTimeout = timeout
	return d
}

// Start records the baseline goroutine count
func (d *GoroutineLeakDetector) Start() {
	d.initialCount = runtime.NumGoroutine()
}

// Check waits up to the settle timeout for the count to return to the
// baseline plus the allowed growth, and fails the test with every stack if
// it does not.
func (d *GoroutineLeakDetector) Check() {
	d.t.Helper()

	deadline := time.Now().Add(d.settleTimeout)
	count := runtime.NumGoroutine()
	for count-d.initialCount > d.allowedGrowth && time.Now().Before(deadline) {
		time.Sleep(d.pollInterval)
		count = runtime.NumGoroutine()
	}

	leaked := count - d.initialCount
	if leaked <= d.allowedGrowth {
		return
	}

	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	d.t.Errorf("goroutine leak: started with %d, ended with %d (allowed growth %d)\n%s",
		d.initialCount, count, d.allowedGrowth, buf[:n])
}

// Run wraps fn between Start and Check
func (d *GoroutineLeakDetector) Run(fn func()) {
	d.t.Helper()
	d.Start()
	fn()
	d.Check()
}
