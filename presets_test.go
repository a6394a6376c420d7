package guard

import (
	"context"
	"errors"
	"testing"
)

func TestStandardClientPreset(t *testing.T) {
	opts := append(StandardClient(), WithClock(newFakeClock()))
	g := New[string]("api", append(opts, WithRegistry(NewRegistry()))...)

	calls := 0
	got, err := g.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}

		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if got != "ok" || calls != 3 {
		t.Fatalf("got %q after %d calls, want ok after 3", got, calls)
	}

	if g.Breaker() == nil {
		t.Fatal("standard client should carry a breaker")
	}
}

func TestStandardClientBreakerTripsAtFive(t *testing.T) {
	opts := append(StandardClient(), WithClock(newFakeClock()), WithRegistry(NewRegistry()))
	g := New[string]("api", opts...)

	// Each Do runs 3 attempts but records a single breaker outcome.
	for range 5 {
		_, _ = g.Do(context.Background(), func(context.Context) (string, error) {
			return "", errors.New("down")
		})
	}

	if got := g.Breaker().State(); got != BreakerOpen {
		t.Fatalf("breaker state = %v, want open after 5 failed calls", got)
	}
}

func TestLowLatencyClientPreset(t *testing.T) {
	opts := append(LowLatencyClient(), WithClock(newFakeClock()), WithRegistry(NewRegistry()))
	g := New[int]("fast", opts...)

	got, err := g.Do(context.Background(), func(context.Context) (int, error) {
		return 1, nil
	})
	if err != nil || got != 1 {
		t.Fatalf("Do() = %d, %v, want 1, nil", got, err)
	}
}

func TestBatchWorkerPreset(t *testing.T) {
	opts := append(BatchWorker(), WithClock(newFakeClock()), WithRegistry(NewRegistry()))
	g := New[int]("batch", opts...)

	for i := range 20 {
		got, err := g.Do(context.Background(), func(context.Context) (int, error) {
			return i, nil
		})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}

		if got != i {
			t.Fatalf("call %d returned %d", i, got)
		}
	}
}
