package fetcher

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func TestRequestBudget(t *testing.T) {
	fixedNow := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	newBudget := func() *RequestBudget {
		b := NewRequestBudget()
		b.now = func() time.Time { return fixedNow }
		return b
	}
	header := func(kv ...string) *http.Response {
		resp := &http.Response{Header: make(http.Header)}
		for i := 0; i+1 < len(kv); i += 2 {
			resp.Header.Set(kv[i], kv[i+1])
		}
		return resp
	}

	t.Run("unknown budget never blocks", func(t *testing.T) {
		b := newBudget()
		for i := 0; i < 100; i++ {
			if err := b.Acquire(context.Background()); err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
		}
		if got := b.Remaining(); got != -1 {
			t.Fatalf("expected unknown budget to stay -1, got %d", got)
		}
	})

	t.Run("nil budget never blocks", func(t *testing.T) {
		var b *RequestBudget
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		b.UpdateFromResponse(header("X-RateLimit-Remaining", "1"))
	})

	t.Run("UpdateFromResponse sets remaining and reset", func(t *testing.T) {
		b := newBudget()
		b.UpdateFromResponse(header("X-RateLimit-Remaining", "10", "X-RateLimit-Reset", "1700000000"))

		if rem := b.Remaining(); rem != 10 {
			t.Fatalf("Expected 10 remaining, got %d", rem)
		}
		if !b.reset.Equal(time.Unix(1700000000, 0)) {
			t.Fatalf("Expected reset %v, got %v", time.Unix(1700000000, 0), b.reset)
		}
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if rem := b.Remaining(); rem != 9 {
			t.Fatalf("Expected 9 remaining after acquire, got %d", rem)
		}
	})

	t.Run("Retry-After causes cooldown blocking", func(t *testing.T) {
		b := newBudget()
		b.UpdateFromResponse(header("Retry-After", "60"))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := b.Acquire(ctx); err == nil {
			t.Fatalf("Expected context deadline exceeded during cooldown")
		}
	})

	t.Run("exhausted budget blocks until reset", func(t *testing.T) {
		b := newBudget()
		reset := fixedNow.Add(time.Hour).Unix()
		b.UpdateFromResponse(header("X-RateLimit-Remaining", "0", "X-RateLimit-Reset", itoa(reset)))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := b.Acquire(ctx); err == nil {
			t.Fatalf("Expected exhausted budget to block")
		}
	})

	t.Run("refill wakes blocked callers", func(t *testing.T) {
		b := newBudget()
		reset := fixedNow.Add(time.Hour).Unix()
		b.UpdateFromResponse(header("X-RateLimit-Remaining", "0", "X-RateLimit-Reset", itoa(reset)))

		done := make(chan error, 1)
		go func() { done <- b.Acquire(context.Background()) }()

		time.Sleep(10 * time.Millisecond)
		b.UpdateFromResponse(header("X-RateLimit-Remaining", "5"))

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Acquire failed: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Acquire did not wake after refill")
		}
	})

	t.Run("past reset lets one request through", func(t *testing.T) {
		b := newBudget()
		past := fixedNow.Add(-time.Minute).Unix()
		b.UpdateFromResponse(header("X-RateLimit-Remaining", "0", "X-RateLimit-Reset", itoa(past)))

		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("first Acquire failed: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := b.Acquire(ctx); err == nil {
			t.Fatalf("Expected second Acquire to wait for the first response")
		}
	})

	t.Run("request lost after reset is retried", func(t *testing.T) {
		clock := fixedNow
		b := NewRequestBudget()
		b.now = func() time.Time { return clock }
		past := fixedNow.Add(-time.Minute).Unix()
		b.UpdateFromResponse(header("X-RateLimit-Remaining", "0", "X-RateLimit-Reset", itoa(past)))

		// The first request through fails before any response arrives, so no
		// headers ever reach UpdateFromResponse.
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("first Acquire failed: %v", err)
		}

		clock = fixedNow.Add(recheckAfter - time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := b.Acquire(ctx); err == nil {
			t.Fatalf("Expected Acquire to keep waiting before the recheck interval")
		}

		clock = fixedNow.Add(recheckAfter)
		ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
		defer cancel2()
		if err := b.Acquire(ctx2); err != nil {
			t.Fatalf("Expected a new request once the recheck interval passed, got %v", err)
		}
	})
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
