package countdown

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown is a re-armable one second ticker. Each arming gets a new
// generation; ticks carry the generation they were armed with so the owner
// can discard ticks from a superseded arming.
//
// Arm, Stop and Current are meant to be called from a single goroutine (the
// owner's event loop).
type Countdown struct {
	clock clockwork.Clock
	post  func(gen uint64)

	gen  uint64
	stop chan struct{}
}

// New returns a stopped countdown. post is called from the ticker goroutine
// for every tick and may block.
func New(clock clockwork.Clock, post func(gen uint64)) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{clock: clock, post: post}
}

// Arm cancels any running ticker and starts a fresh one.
func (c *Countdown) Arm() uint64 {
	c.Stop()

	gen := c.gen
	stop := make(chan struct{})
	c.stop = stop
	t := c.clock.NewTicker(time.Second)

	go func() {
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.Chan():
				select {
				case <-stop:
					return
				default:
				}
				c.post(gen)
			}
		}
	}()
	return gen
}

// Stop cancels the running ticker, if any. Ticks already in flight will
// carry a stale generation.
func (c *Countdown) Stop() {
	c.gen++
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Current is the generation of the live arming.
func (c *Countdown) Current() uint64 { return c.gen }

// Running reports whether a ticker is armed.
func (c *Countdown) Running() bool { return c.stop != nil }
