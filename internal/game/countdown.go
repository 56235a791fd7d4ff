package game

import (
	"context"
	"sync"
	"time"
)

// Ticker is the one-second interval source driving session countdowns.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker adapts time.Ticker to Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Countdown owns the goroutine feeding ticks to one session. Stop is safe to
// call from any path, including from inside the tick callback, and only the
// first call has an effect.
type Countdown struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func startCountdown(parent context.Context, ticker Ticker, onTick func()) *Countdown {
	ctx, cancel := context.WithCancel(parent)
	c := &Countdown{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				// A tick may race with Stop; drop it once cancelled.
				if ctx.Err() != nil {
					return
				}
				onTick()
			}
		}
	}()
	return c
}

// Stop cancels the countdown. It reports whether this call did the cancelling.
func (c *Countdown) Stop() bool {
	stopped := false
	c.once.Do(func() {
		c.cancel()
		stopped = true
	})
	return stopped
}

// Done is closed once the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} { return c.done }
