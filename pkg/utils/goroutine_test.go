package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingTB captures failures instead of failing the real test
type recordingTB struct {
	testing.TB
	errors []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestGoroutineLeakDetectorNoLeak(t *testing.T) {
	detector := NewGoroutineLeakDetector(t)

	detector.Run(func() {
		done := make(chan struct{})
		go func() { close(done) }()
		<-done
	})
}

func TestGoroutineLeakDetectorWaitsForExit(t *testing.T) {
	rec := &recordingTB{TB: t}
	detector := NewGoroutineLeakDetector(rec)

	detector.Run(func() {
		go func() { time.Sleep(100 * time.Millisecond) }()
	})

	assert.Empty(t, rec.errors)
}

func TestGoroutineLeakDetectorReportsLeak(t *testing.T) {
	rec := &recordingTB{TB: t}
	detector := NewGoroutineLeakDetector(rec).SetSettleTimeout(100 * time.Millisecond)

	stop := make(chan struct{})
	defer close(stop)

	detector.Run(func() {
		go func() { <-stop }()
	})

	if assert.Len(t, rec.errors, 1) {
		assert.Contains(t, rec.errors[0], "goroutine leak")
	}
}

func TestGoroutineLeakDetectorAllowedGrowth(t *testing.T) {
	rec := &recordingTB{TB: t}
	detector := NewGoroutineLeakDetector(rec).SetAllowedGrowth(1).SetSettleTimeout(50 * time.Millisecond)

	stop := make(chan struct{})
	defer close(stop)

	detector.Run(func() {
		go func() { <-stop }()
	})

	assert.Empty(t, rec.errors)
}
