package index

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemorySeenMarkIfNew(t *testing.T) {
	seen := NewMemorySeen(time.Hour)
	ctx := context.Background()

	first, _ := seen.MarkIfNew(ctx, "fp")
	if !first {
		t.Fatal("first MarkIfNew() should report new")
	}
	again, _ := seen.MarkIfNew(ctx, "fp")
	if again {
		t.Fatal("second MarkIfNew() should report seen")
	}
	other, _ := seen.MarkIfNew(ctx, "other")
	if !other {
		t.Fatal("distinct fingerprint should be new")
	}
	if seen.Count() != 2 {
		t.Errorf("Count() = %d, want 2", seen.Count())
	}
}

func TestMemorySeenExpiry(t *testing.T) {
	seen := NewMemorySeen(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seen.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = seen.MarkIfNew(ctx, "fp")
	now = now.Add(2 * time.Minute)

	fresh, _ := seen.MarkIfNew(ctx, "fp")
	if !fresh {
		t.Fatal("expired fingerprint should be new again")
	}

	_, _ = seen.MarkIfNew(ctx, "old")
	now = now.Add(2 * time.Minute)
	if removed := seen.Sweep(); removed != 2 {
		t.Errorf("Sweep() removed %d, want 2", removed)
	}
	if seen.Count() != 0 {
		t.Errorf("Count() after sweep = %d, want 0", seen.Count())
	}
}

func TestMemorySeenForget(t *testing.T) {
	seen := NewMemorySeen(time.Hour)
	ctx := context.Background()

	_, _ = seen.MarkIfNew(ctx, "fp")
	if err := seen.Forget(ctx, "fp"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	fresh, _ := seen.MarkIfNew(ctx, "fp")
	if !fresh {
		t.Fatal("forgotten fingerprint should be new")
	}
}

func TestMemorySeenConcurrent(t *testing.T) {
	seen := NewMemorySeen(time.Hour)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fresh int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := seen.MarkIfNew(ctx, "same"); ok {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if fresh != 1 {
		t.Errorf("%d goroutines saw the fingerprint as new, want 1", fresh)
	}
}

func TestMemoryLease(t *testing.T) {
	var lease MemoryLease
	ctx := context.Background()

	release, ok, err := lease.Acquire(ctx, time.Minute)
	if err != nil || !ok {
		t.Fatalf("Acquire() = %v, %v, want ok", ok, err)
	}
	if _, ok, _ := lease.Acquire(ctx, time.Minute); ok {
		t.Fatal("second Acquire() should fail while held")
	}

	_ = release(ctx)
	_ = release(ctx) // double release is harmless

	release2, ok, _ := lease.Acquire(ctx, time.Minute)
	if !ok {
		t.Fatal("Acquire() after release should succeed")
	}
	_ = release2(ctx)
}
