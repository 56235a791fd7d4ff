package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

type countingSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSubmitter) SubmitClick(_ context.Context, _ string, _, _ float64) (ClickResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return ClickResult{}, c.err
	}
	c.calls++
	return ClickResult{ClicksUsed: c.calls}, nil
}

func TestDebouncerCoalescesWithinWindow(t *testing.T) {
	next := &countingSubmitter{}
	clock := &fakeClock{t: t0}
	d := NewDebouncer(next, 150*time.Millisecond, clock.Now)
	ctx := context.Background()

	first, err := d.SubmitClick(ctx, "s", 1, 1)
	if err != nil || first.Debounced {
		t.Fatalf("first = %+v, %v", first, err)
	}

	clock.Advance(100 * time.Millisecond)
	second, _ := d.SubmitClick(ctx, "s", 1, 1)
	if !second.Debounced || second.ClicksUsed != 1 {
		t.Errorf("second = %+v, want debounced copy of the first", second)
	}

	other, _ := d.SubmitClick(ctx, "other", 1, 1)
	if other.Debounced {
		t.Error("sessions must be debounced independently")
	}

	clock.Advance(100 * time.Millisecond)
	third, _ := d.SubmitClick(ctx, "s", 1, 1)
	if third.Debounced {
		t.Error("click after the window should go through")
	}
	if next.calls != 3 {
		t.Errorf("underlying calls = %d, want 3", next.calls)
	}
}

func TestDebouncerDisabled(t *testing.T) {
	next := &countingSubmitter{}
	d := NewDebouncer(next, 0, nil)
	for range 3 {
		if res, _ := d.SubmitClick(context.Background(), "s", 1, 1); res.Debounced {
			t.Fatal("disabled debouncer must pass every click through")
		}
	}
	if next.calls != 3 {
		t.Errorf("calls = %d", next.calls)
	}
}

func TestDebouncerDoesNotCacheErrors(t *testing.T) {
	next := &countingSubmitter{err: riskhunt.ErrInvalidState}
	d := NewDebouncer(next, time.Second, (&fakeClock{t: t0}).Now)

	for range 2 {
		if _, err := d.SubmitClick(context.Background(), "s", 1, 1); !errors.Is(err, riskhunt.ErrInvalidState) {
			t.Errorf("err = %v", err)
		}
	}
}

type gatedSubmitter struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (g *gatedSubmitter) SubmitClick(_ context.Context, _ string, _, _ float64) (ClickResult, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if n == 1 {
		close(g.entered)
	}
	<-g.release
	return ClickResult{ClicksUsed: n}, nil
}

func TestDebouncerCoalescesInFlightClick(t *testing.T) {
	next := &gatedSubmitter{entered: make(chan struct{}), release: make(chan struct{})}
	d := NewDebouncer(next, 150*time.Millisecond, (&fakeClock{t: t0}).Now)
	ctx := context.Background()

	results := make(chan ClickResult, 2)
	go func() {
		res, _ := d.SubmitClick(ctx, "s", 1, 1)
		results <- res
	}()
	<-next.entered

	// Whether the second click joins the first or arrives just after it
	// returned, it must not reach the registry.
	go func() {
		res, _ := d.SubmitClick(ctx, "s", 1, 1)
		results <- res
	}()
	close(next.release)

	debounced := 0
	for range 2 {
		res := <-results
		if res.ClicksUsed != 1 {
			t.Errorf("result = %+v, want the first click's result", res)
		}
		if res.Debounced {
			debounced++
		}
	}
	if debounced != 1 {
		t.Errorf("debounced = %d, want 1", debounced)
	}
	next.mu.Lock()
	defer next.mu.Unlock()
	if next.calls != 1 {
		t.Errorf("underlying calls = %d, want 1", next.calls)
	}
}
