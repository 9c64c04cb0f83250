// Package timeutil provides the fixed-step simulation clock and the pacers
// that decide how fast simulation ticks run against wall time.
package timeutil

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// SimClock hands out simulation time in fixed steps. Time is derived from
// the tick count rather than accumulated, so it does not drift.
type SimClock struct {
	hz   float64
	step float64
	tick uint64
}

// NewSimClock creates a clock ticking at hz steps per simulated second.
func NewSimClock(hz float64) (*SimClock, error) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return nil, fmt.Errorf("tick rate must be positive and finite, got %f", hz)
	}
	return &SimClock{hz: hz, step: 1 / hz}, nil
}

// Step returns the length of one tick in seconds.
func (c *SimClock) Step() float64 { return c.step }

// Interval returns the length of one tick as a time.Duration.
func (c *SimClock) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.hz)
}

// Tick returns the number of completed ticks.
func (c *SimClock) Tick() uint64 { return c.tick }

// Now returns the current simulation time in seconds.
func (c *SimClock) Now() float64 { return float64(c.tick) / c.hz }

// Advance moves the clock forward one tick and returns the new tick number
// and time.
func (c *SimClock) Advance() (uint64, float64) {
	c.tick++
	return c.tick, c.Now()
}

// Pacer blocks between simulation ticks.
type Pacer interface {
	// Wait blocks until the next tick is due or ctx is done.
	Wait(ctx context.Context) error

	// Stop releases any resources held by the pacer.
	Stop()
}

// RealPacer paces ticks against the wall clock.
type RealPacer struct {
	ticker *time.Ticker
}

// NewRealPacer returns a pacer releasing one tick per interval.
func NewRealPacer(interval time.Duration) *RealPacer {
	return &RealPacer{ticker: time.NewTicker(interval)}
}

// Wait blocks until the next wall-clock tick.
func (p *RealPacer) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ticker.C:
		return nil
	}
}

// Stop turns off the underlying ticker.
func (p *RealPacer) Stop() { p.ticker.Stop() }

// FreePacer never blocks; the simulation runs as fast as it can.
type FreePacer struct{}

// Wait returns immediately unless ctx is already done.
func (FreePacer) Wait(ctx context.Context) error { return ctx.Err() }

// Stop is a no-op.
func (FreePacer) Stop() {}

// MockPacer counts waits and can fail after a set number of them.
type MockPacer struct {
	mu      sync.Mutex
	waits   int
	stopped bool

	// FailAfter makes Wait return Err once this many waits succeeded.
	// Zero disables failure.
	FailAfter int
	Err       error
}

// Wait records the call.
func (p *MockPacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailAfter > 0 && p.waits >= p.FailAfter {
		return p.Err
	}
	p.waits++
	return nil
}

// Stop records that the pacer was stopped.
func (p *MockPacer) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

// Waits returns the number of successful waits.
func (p *MockPacer) Waits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

// Stopped reports whether Stop was called.
func (p *MockPacer) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
