// Package clock provides the attempt's elapsed-time ticker.
package clock

import (
	"sync"
	"time"
)

// Clock calls onTick once per interval from its own goroutine until stopped.
// A stopped clock never starts again.
type Clock struct {
	interval time.Duration
	onTick   func()

	mu      sync.Mutex
	running bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

func New(interval time.Duration, onTick func()) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	return &Clock{
		interval: interval,
		onTick:   onTick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. Calls after the first Start, or after Stop, do nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.stopped {
		return
	}
	c.running = true
	go c.loop()
}

// Stop ends the tick loop without waiting for it. It is safe to call from onTick,
// more than once, or before Start.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
	if !c.running {
		close(c.done)
	}
}

// Done is closed once the tick goroutine has exited (or immediately after a
// Stop that preceded Start).
func (c *Clock) Done() <-chan struct{} {
	return c.done
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running && !c.stopped
}

func (c *Clock) loop() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// Stop may race with the ticker; prefer stopping.
			select {
			case <-c.stop:
				return
			default:
			}
			c.onTick()
		}
	}
}
