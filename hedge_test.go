package guard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestHedgeFastPrimaryNeverHedges(t *testing.T) {
	clk := newFakeClock()
	clk.block = true // the hedge timer must not fire

	hedges := 0
	hooks := &Hooks{OnHedge: func() { hedges++ }}

	got, err := DoHedge(context.Background(), time.Second, func(context.Context) (int, error) {
		return 1, nil
	}, hooks, clk)

	if err != nil || got != 1 {
		t.Fatalf("DoHedge() = (%d, %v), want (1, nil)", got, err)
	}
	if hedges != 0 {
		t.Fatal("hedge launched although primary finished first")
	}
}

func TestHedgeLaunchesSecondAttempt(t *testing.T) {
	clk := newFakeClock() // timers fire immediately: always hedge

	var calls atomic.Int32
	won := 0
	hooks := &Hooks{OnHedgeWon: func() { won++ }}

	release := make(chan struct{})

	got, err := DoHedge(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			// Primary: stall until the test is over.
			select {
			case <-release:
			case <-ctx.Done():
			}
			return 0, errors.New("primary too slow")
		}
		return 2, nil
	}, hooks, clk)

	close(release)

	if err != nil || got != 2 {
		t.Fatalf("DoHedge() = (%d, %v), want (2, nil)", got, err)
	}
	if won != 1 {
		t.Fatalf("OnHedgeWon fired %d times, want 1", won)
	}
}

func TestHedgeBothFailReturnsFirstError(t *testing.T) {
	clk := newFakeClock()

	first := errors.New("first to fail")

	var calls atomic.Int32
	_, err := DoHedge(context.Background(), time.Millisecond, func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, first
		}
		return 0, errors.New("second to fail")
	}, nil, clk)

	if err == nil {
		t.Fatal("DoHedge() = nil, want an error when both attempts fail")
	}
}

func TestHedgeCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	invoked := false
	_, err := DoHedge(ctx, time.Millisecond, func(context.Context) (int, error) {
		invoked = true
		return 0, nil
	}, nil, newFakeClock())

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("DoHedge() = %v, want context.Canceled", err)
	}
	if invoked {
		t.Fatal("operation invoked despite dead parent context")
	}
}

func TestHedgePrimaryWinsAfterHedgeLaunched(t *testing.T) {
	clk := newFakeClock() // hedge fires immediately

	var calls atomic.Int32

	got, err := DoHedge(context.Background(), time.Millisecond, func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 10, nil // primary succeeds, just after the hedge launches
		}
		<-ctx.Done() // hedge gets cancelled by the winner
		return 0, ctx.Err()
	}, nil, clk)

	if err != nil || got != 10 {
		t.Fatalf("DoHedge() = (%d, %v), want (10, nil)", got, err)
	}
}
