package otp

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryRegistryConsumeOnce(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()

	if err := reg.Put(ctx, "+15551234567", "042917"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := reg.CheckAndConsume(ctx, "+15551234567", "042917")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatal("expected first consume to succeed")
	}

	ok, err = reg.CheckAndConsume(ctx, "+15551234567", "042917")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if ok {
		t.Fatal("expected second consume of the same code to fail")
	}
}

func TestMemoryRegistryMismatchLeavesEntry(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()

	_ = reg.Put(ctx, "p", "111111")

	if ok, _ := reg.CheckAndConsume(ctx, "p", "222222"); ok {
		t.Fatal("expected mismatch to fail")
	}
	if ok, _ := reg.CheckAndConsume(ctx, "p", "111111"); !ok {
		t.Fatal("expected entry to survive a failed attempt")
	}
}

func TestMemoryRegistryUnknownPrincipal(t *testing.T) {
	reg := NewMemoryRegistry(0)

	if ok, _ := reg.CheckAndConsume(context.Background(), "nobody", "123456"); ok {
		t.Fatal("expected consume without a pending code to fail")
	}
}

func TestMemoryRegistryLastIssuedWins(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()

	_ = reg.Put(ctx, "p", "111111")
	_ = reg.Put(ctx, "p", "222222")

	if ok, _ := reg.CheckAndConsume(ctx, "p", "111111"); ok {
		t.Fatal("expected the overwritten code to be rejected")
	}
	if ok, _ := reg.CheckAndConsume(ctx, "p", "222222"); !ok {
		t.Fatal("expected the latest code to verify")
	}
}

func TestMemoryRegistryTTL(t *testing.T) {
	reg := NewMemoryRegistry(time.Minute)
	now := time.Now()
	reg.now = func() time.Time { return now }
	ctx := context.Background()

	_ = reg.Put(ctx, "p", "123456")

	now = now.Add(2 * time.Minute)
	if ok, _ := reg.CheckAndConsume(ctx, "p", "123456"); ok {
		t.Fatal("expected expired code to be rejected")
	}
}

func TestMemoryRegistryConcurrentPuts(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = reg.Put(ctx, "p", "111111")
		}()
		go func() {
			defer wg.Done()
			_ = reg.Put(ctx, "p", "222222")
		}()
	}
	wg.Wait()

	if got := reg.Len(); got != 1 {
		t.Fatalf("expected exactly one outstanding entry, got %d", got)
	}

	first, _ := reg.CheckAndConsume(ctx, "p", "111111")
	second, _ := reg.CheckAndConsume(ctx, "p", "222222")
	if first == second {
		t.Fatalf("expected exactly one of the two codes to win, got first=%v second=%v", first, second)
	}
}
