package assessment

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown_NoCallbackAfterStop(t *testing.T) {
	var calls atomic.Int32
	c := NewCountdown(time.Millisecond, func() bool {
		calls.Add(1)
		return true
	})
	c.Start()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	c.Stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestCountdown_StopWaitsForInFlightCallback(t *testing.T) {
	var running, finished atomic.Bool
	entered := make(chan struct{})

	c := NewCountdown(time.Millisecond, func() bool {
		if running.Swap(true) {
			return true
		}
		close(entered)
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return true
	})
	c.Start()

	<-entered
	c.Stop()
	assert.True(t, finished.Load(), "Stop returned while the callback was still running")
}

func TestCountdown_CallbackFalseEndsLoop(t *testing.T) {
	var calls atomic.Int32
	c := NewCountdown(time.Millisecond, func() bool {
		return calls.Add(1) < 2
	})
	c.Start()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit")
	}
	assert.Equal(t, int32(2), calls.Load())
	c.Stop()
}

func TestCountdown_StopIsIdempotent(t *testing.T) {
	c := NewCountdown(time.Millisecond, func() bool { return true })
	c.Start()
	c.Stop()
	c.Stop()
}

func TestCountdown_StopBeforeStart(t *testing.T) {
	var calls atomic.Int32
	c := NewCountdown(time.Millisecond, func() bool {
		calls.Add(1)
		return true
	})
	c.Stop()
	c.Start()

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
