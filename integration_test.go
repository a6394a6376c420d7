package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// A dependency that fails hard, then recovers, exercising retry, breaker,
// probe and close in sequence.
func TestGuardRecoveryLifecycle(t *testing.T) {
	clk := newFakeClock()

	var opens, closes int

	g := New[string]("backend",
		WithRegistry(NewRegistry()),
		WithClock(clk),
		WithHooks(&Hooks{
			OnBreakerOpen:  func() { opens++ },
			OnBreakerClose: func() { closes++ },
		}),
		WithBreaker(Threshold(2), Cooldown(10*time.Second)),
		WithRetry(MaxRetries(1), InitialDelay(time.Millisecond)),
	)

	healthy := false
	op := func(context.Context) (string, error) {
		if !healthy {
			return "", errors.New("connection refused")
		}

		return "pong", nil
	}

	// Two failed calls trip the breaker.
	for range 2 {
		_, err := g.Do(context.Background(), op)
		require.Error(t, err)
	}

	require.Equal(t, 1, opens)
	assert.Equal(t, BreakerOpen, g.Breaker().State())

	// While open, calls fail fast without reaching the operation.
	invoked := false
	_, err := g.Do(context.Background(), func(context.Context) (string, error) {
		invoked = true
		return "", nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, invoked)

	// After the cooldown a probe goes through and the service has
	// recovered, closing the breaker.
	healthy = true

	clk.Advance(11 * time.Second)

	got, err := g.Do(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
	assert.Equal(t, 1, closes)
	assert.Equal(t, BreakerClosed, g.Breaker().State())
}

func TestGuardStaleCacheMasksOutage(t *testing.T) {
	clk := newFakeClock()

	var staleAges []time.Duration

	g := New[string]("catalog",
		WithRegistry(NewRegistry()),
		WithClock(clk),
		WithHooks(&Hooks{
			OnStaleServed: func(age time.Duration) { staleAges = append(staleAges, age) },
		}),
		WithStaleCache(time.Hour),
		WithRetry(MaxRetries(1), InitialDelay(time.Millisecond)),
	)

	up := true
	op := func(context.Context) (string, error) {
		if !up {
			return "", errors.New("down")
		}

		return "fresh", nil
	}

	got, err := g.Do(context.Background(), op)
	require.NoError(t, err)
	require.Equal(t, "fresh", got)

	// The outage starts two minutes later; the cached value carries us.
	up = false

	clk.Advance(2 * time.Minute)

	got, err = g.Do(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	require.Len(t, staleAges, 1)
	assert.GreaterOrEqual(t, staleAges[0], 2*time.Minute)
}

func TestGuardBulkheadAndRateLimitUnderLoad(t *testing.T) {
	g := New[int]("load",
		WithRegistry(NewRegistry()),
		WithRateLimit(100, 0),
		WithBulkhead(8),
	)

	var (
		mu        sync.Mutex
		inFlight  int
		maxSeen   int
		succeeded int
	)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := g.Do(context.Background(), func(context.Context) (int, error) {
				mu.Lock()
				inFlight++
				if inFlight > maxSeen {
					maxSeen = inFlight
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()

				return 0, nil
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrBulkheadFull) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen, 8)
	assert.Positive(t, succeeded)
}

func TestGuardFullStackOrdering(t *testing.T) {
	clk := newFakeClock()

	// Fallback outranks everything, so even a tripped breaker yields the
	// fallback value instead of an error.
	g := New[string]("edge",
		WithRegistry(NewRegistry()),
		WithClock(clk),
		WithTimeout(time.Second),
		WithBreaker(Threshold(1)),
		WithRetry(MaxRetries(2), InitialDelay(time.Millisecond)),
		WithFallback("cached"),
	)

	calls := 0
	got, err := g.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("down")
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", got)
	assert.Equal(t, 3, calls, "retries should be exhausted before the fallback fires")

	// Second call fails fast on the open breaker and still gets the
	// fallback without touching the operation.
	got, err = g.Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("down")
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", got)
	assert.Equal(t, 3, calls)
}

func TestGuardReadinessReflectsRuntimeState(t *testing.T) {
	reg := NewRegistry()
	clk := newFakeClock()

	g := New[int]("db", WithRegistry(reg), WithClock(clk), WithBreaker(Threshold(1), Cooldown(time.Second)))

	require.True(t, reg.CheckReadiness().Ready)

	_, _ = g.Do(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	require.False(t, reg.CheckReadiness().Ready)

	clk.Advance(2 * time.Second)

	_, err := g.Do(context.Background(), func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	assert.True(t, reg.CheckReadiness().Ready)
}
