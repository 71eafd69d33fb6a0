package fetcher

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RequestBudget paces requests against GitHub's rate limit, shared by all
// workers of a build. Until a response reports X-RateLimit-Remaining the
// budget is unknown and requests pass freely (the raw file host never sends
// the header). A nil *RequestBudget never blocks.
type RequestBudget struct {
	mu          sync.Mutex
	remaining   int // -1 while unknown
	reset       time.Time
	cooldown    time.Time
	checkSentAt time.Time // zero unless a request is out checking the new window
	now         func() time.Time
	notifyCh    chan struct{}
}

// recheckAfter bounds how long callers wait on the request sent after the
// reset time. If it fails without a response, or the response carries no
// new headers, another request is let through once this passes.
const recheckAfter = 5 * time.Second

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		remaining: -1,
		now:       time.Now,
		notifyCh:  make(chan struct{}),
	}
}

// Remaining reports the last known remaining request count, or -1.
func (b *RequestBudget) Remaining() int {
	if b == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Acquire blocks until one request may be issued or ctx is done.
func (b *RequestBudget) Acquire(ctx context.Context) error {
	if b == nil {
		return nil
	}
	for {
		b.mu.Lock()
		now := b.now()
		notify := b.notifyCh
		var until time.Time

		switch {
		case now.Before(b.cooldown):
			until = b.cooldown
		case b.remaining != 0:
			if b.remaining > 0 {
				b.remaining--
			}
			b.mu.Unlock()
			return nil
		case !now.Before(b.reset):
			// The window should have rolled over: let one request through to
			// observe the new budget, then wait for its response.
			if b.checkSentAt.IsZero() || !now.Before(b.checkSentAt.Add(recheckAfter)) {
				b.checkSentAt = now
				b.mu.Unlock()
				return nil
			}
			until = b.checkSentAt.Add(recheckAfter)
		default:
			until = b.reset
		}
		b.mu.Unlock()

		if err := wait(ctx, now, until, notify); err != nil {
			return err
		}
	}
}

// wait returns when notify fires, until passes (if non-zero) or ctx ends.
func wait(ctx context.Context, now, until time.Time, notify <-chan struct{}) error {
	if until.IsZero() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
			return nil
		}
	}
	timer := time.NewTimer(until.Sub(now))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-notify:
		return nil
	case <-timer.C:
		return nil
	}
}

// UpdateFromResponse folds Retry-After and X-RateLimit-* headers into the
// budget and wakes blocked callers when anything changed.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if b == nil || resp == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false

	if seconds, ok := headerInt(resp, "Retry-After"); ok && seconds > 0 {
		until := b.now().Add(time.Duration(seconds) * time.Second)
		if until.After(b.cooldown) {
			b.cooldown = until
			changed = true
		}
	}
	if val, ok := headerInt(resp, "X-RateLimit-Remaining"); ok && val >= 0 && val != int64(b.remaining) {
		b.remaining = int(val)
		changed = true
	}
	if val, ok := headerInt(resp, "X-RateLimit-Reset"); ok && val > 0 {
		if r := time.Unix(val, 0); !b.reset.Equal(r) {
			b.reset = r
			changed = true
		}
	}

	if changed {
		b.checkSentAt = time.Time{}
		close(b.notifyCh)
		b.notifyCh = make(chan struct{})
	}
}

func headerInt(resp *http.Response, name string) (int64, bool) {
	raw := resp.Header.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
