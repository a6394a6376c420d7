package guard

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// memoryCache
// ---------------------------------------------------------------------------

func TestMemoryCacheSetGetDelete(t *testing.T) {
	c := NewMemoryCache[string, int](0, newFakeClock())

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get() on empty cache found an entry")
	}

	c.Set("a", 1)
	if got, ok := c.Get("a"); !ok || got != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", got, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() after Delete found an entry")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	clk := newFakeClock()
	c := NewMemoryCache[string, int](time.Minute, clk)

	c.Set("a", 1)

	clk.Advance(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	clk.Advance(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived past its TTL")
	}
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	clk := newFakeClock()
	c := NewMemoryCache[string, int](0, clk)

	c.Set("a", 1)
	clk.Advance(1000 * time.Hour)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("zero-TTL entry expired")
	}
}

// ---------------------------------------------------------------------------
// StaleCache
// ---------------------------------------------------------------------------

func TestStaleCacheRefreshesOnSuccess(t *testing.T) {
	sc := NewMemoryStaleCache[string, int](time.Minute, newFakeClock(), nil)

	got, err := sc.Do(context.Background(), "k", func(_ context.Context, _ string) (int, error) {
		return 5, nil
	})

	if err != nil || got != 5 {
		t.Fatalf("Do() = (%d, %v), want (5, nil)", got, err)
	}
}

func TestStaleCacheServesLastGoodOnFailure(t *testing.T) {
	clk := newFakeClock()

	var age time.Duration
	hooks := &Hooks{OnStaleServed: func(a time.Duration) { age = a }}

	sc := NewMemoryStaleCache[string, int](time.Minute, clk, hooks)

	_, _ = sc.Do(context.Background(), "k", func(_ context.Context, _ string) (int, error) {
		return 5, nil
	})

	clk.Advance(10 * time.Second)

	got, err := sc.Do(context.Background(), "k", func(_ context.Context, _ string) (int, error) {
		return 0, errors.New("upstream down")
	})

	if err != nil || got != 5 {
		t.Fatalf("Do() on failure = (%d, %v), want stale (5, nil)", got, err)
	}
	if age != 10*time.Second {
		t.Fatalf("OnStaleServed age = %v, want 10s", age)
	}
}

func TestStaleCacheFailsWhenNothingCached(t *testing.T) {
	sc := NewMemoryStaleCache[string, int](time.Minute, newFakeClock(), nil)

	boom := errors.New("boom")
	_, err := sc.Do(context.Background(), "cold", func(_ context.Context, _ string) (int, error) {
		return 0, boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("Do() = %v, want the operation error unchanged", err)
	}
}

func TestStaleCacheExpiredEntryDoesNotMask(t *testing.T) {
	clk := newFakeClock()
	sc := NewMemoryStaleCache[string, int](time.Minute, clk, nil)

	_, _ = sc.Do(context.Background(), "k", func(_ context.Context, _ string) (int, error) {
		return 5, nil
	})

	clk.Advance(2 * time.Minute)

	boom := errors.New("boom")
	_, err := sc.Do(context.Background(), "k", func(_ context.Context, _ string) (int, error) {
		return 0, boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("Do() = %v, want error (entry expired)", err)
	}
}

func TestStaleCacheKeysAreIndependent(t *testing.T) {
	sc := NewMemoryStaleCache[string, int](time.Minute, newFakeClock(), nil)

	_, _ = sc.Do(context.Background(), "a", func(_ context.Context, _ string) (int, error) {
		return 1, nil
	})

	boom := errors.New("boom")
	_, err := sc.Do(context.Background(), "b", func(_ context.Context, _ string) (int, error) {
		return 0, boom
	})

	if !errors.Is(err, boom) {
		t.Fatal("failure on key b was masked by key a's entry")
	}
}
