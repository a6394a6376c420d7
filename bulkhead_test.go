package guard

import (
	"errors"
	"sync"
	"testing"
)

func TestBulkheadAcquireRelease(t *testing.T) {
	bh := NewBulkhead(2, nil)

	if err := bh.Acquire(); err != nil {
		t.Fatalf("Acquire() #1 = %v, want nil", err)
	}
	if err := bh.Acquire(); err != nil {
		t.Fatalf("Acquire() #2 = %v, want nil", err)
	}

	if err := bh.Acquire(); !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("Acquire() #3 = %v, want ErrBulkheadFull", err)
	}

	bh.Release()
	if err := bh.Acquire(); err != nil {
		t.Fatalf("Acquire() after Release = %v, want nil", err)
	}
}

func TestBulkheadFullAndInUse(t *testing.T) {
	bh := NewBulkhead(1, nil)

	if bh.Full() {
		t.Fatal("Full() on empty bulkhead = true")
	}

	_ = bh.Acquire()

	if !bh.Full() {
		t.Fatal("Full() at capacity = false")
	}
	if got := bh.InUse(); got != 1 {
		t.Fatalf("InUse() = %d, want 1", got)
	}
}

func TestBulkheadEmitsFullHook(t *testing.T) {
	rejections := 0
	bh := NewBulkhead(1, &Hooks{OnBulkheadFull: func() { rejections++ }})

	_ = bh.Acquire()
	_ = bh.Acquire()
	_ = bh.Acquire()

	if rejections != 2 {
		t.Fatalf("OnBulkheadFull fired %d times, want 2", rejections)
	}
}

func TestBulkheadNeverOveradmits(t *testing.T) {
	const limit = 4

	bh := NewBulkhead(limit, nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)

	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if bh.Acquire() == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
				// Hold the slot; released after the burst below.
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Fatalf("admitted %d concurrent holders, want %d", admitted, limit)
	}
	if got := bh.InUse(); got != limit {
		t.Fatalf("InUse() = %d, want %d", got, limit)
	}

	for range limit {
		bh.Release()
	}
	if got := bh.InUse(); got != 0 {
		t.Fatalf("InUse() after draining = %d, want 0", got)
	}
}
