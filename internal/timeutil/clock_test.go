package timeutil

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewSimClock(t *testing.T) {
	if _, err := NewSimClock(0); err == nil {
		t.Error("expected error for zero rate")
	}
	if _, err := NewSimClock(-5); err == nil {
		t.Error("expected error for negative rate")
	}
	c, err := NewSimClock(50)
	if err != nil {
		t.Fatalf("NewSimClock(50): %v", err)
	}
	if c.Step() != 0.02 {
		t.Errorf("Step() = %v, want 0.02", c.Step())
	}
	if c.Interval() != 20*time.Millisecond {
		t.Errorf("Interval() = %v, want 20ms", c.Interval())
	}
}

func TestSimClock_Advance(t *testing.T) {
	c, _ := NewSimClock(4)
	if c.Now() != 0 || c.Tick() != 0 {
		t.Fatalf("fresh clock at tick %d time %v", c.Tick(), c.Now())
	}

	for want := uint64(1); want <= 8; want++ {
		tick, now := c.Advance()
		if tick != want {
			t.Errorf("tick = %d, want %d", tick, want)
		}
		if now != float64(want)/4 {
			t.Errorf("now = %v, want %v", now, float64(want)/4)
		}
	}
}

func TestSimClock_NoDrift(t *testing.T) {
	c, _ := NewSimClock(60)
	var now float64
	for i := 0; i < 6000; i++ {
		_, now = c.Advance()
	}
	if math.Abs(now-100) > 1e-12 {
		t.Errorf("after 6000 ticks now = %.15f, want 100", now)
	}
}

func TestRealPacer(t *testing.T) {
	p := NewRealPacer(5 * time.Millisecond)
	defer p.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("three waits took %v, expected at least 10ms", elapsed)
	}
}

func TestRealPacer_Cancelled(t *testing.T) {
	p := NewRealPacer(time.Hour)
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on cancelled context = %v, want context.Canceled", err)
	}
}

func TestFreePacer(t *testing.T) {
	var p FreePacer
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("expected error on cancelled context")
	}
	p.Stop()
}

func TestMockPacer(t *testing.T) {
	boom := errors.New("boom")
	p := &MockPacer{FailAfter: 2, Err: boom}

	for i := 0; i < 2; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if err := p.Wait(context.Background()); !errors.Is(err, boom) {
		t.Errorf("third wait = %v, want boom", err)
	}
	if p.Waits() != 2 {
		t.Errorf("Waits() = %d, want 2", p.Waits())
	}

	p.Stop()
	if !p.Stopped() {
		t.Error("Stopped() = false after Stop")
	}
}

var _ Pacer = (*RealPacer)(nil)
var _ Pacer = FreePacer{}
var _ Pacer = (*MockPacer)(nil)
