package assessment

import (
	"sync"
	"time"
)

// Countdown calls fn once per interval on its own goroutine until fn
// returns false or Stop is called. After Stop returns, fn is never called
// again. Stop must not be called from fn.
type Countdown struct {
	interval time.Duration
	fn       func() bool

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewCountdown creates a stopped countdown
func NewCountdown(interval time.Duration, fn func() bool) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		interval: interval,
		fn:       fn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop. Calling Start twice, or after Stop, does nothing.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.stopped {
		return
	}
	c.started = true
	go c.run()
}

// Stop ends the loop and waits for an in-flight fn to return. Idempotent.
func (c *Countdown) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stop)
	}
	started := c.started
	c.mu.Unlock()

	if started {
		<-c.done
	}
}

// Done is closed when the loop has exited. It stays open if Start was never called.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// a tick and a stop can be ready together
			select {
			case <-c.stop:
				return
			default:
			}
			if !c.fn() {
				return
			}
		}
	}
}
