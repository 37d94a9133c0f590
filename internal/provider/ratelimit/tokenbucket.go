package ratelimit

import (
    "context"
    "sync"
    "time"

    "nsemirror/internal/provider"
)

// TokenBucket admits perMinute calls per minute with bursts of up to burst
// calls. It keeps a single "next free slot" instant instead of a token
// count: each call reserves the slot and pushes it one interval ahead.
type TokenBucket struct {
    interval time.Duration
    // slack is how far the slot may run ahead of now before callers wait.
    slack time.Duration
    now   func() time.Time

    mu   sync.Mutex
    next time.Time
}

// BucketOption configures a TokenBucket.
type BucketOption func(*TokenBucket)

// WithBucketClock replaces time.Now.
func WithBucketClock(now func() time.Time) BucketOption {
    return func(tb *TokenBucket) { tb.now = now }
}

func NewTokenBucket(perMinute, burst int, opts ...BucketOption) *TokenBucket {
    if perMinute <= 0 { perMinute = 1 }
    if burst <= 0 { burst = 1 }
    interval := time.Minute / time.Duration(perMinute)
    tb := &TokenBucket{
        interval: interval,
        slack:    interval * time.Duration(burst-1),
        now:      time.Now,
    }
    for _, opt := range opts {
        opt(tb)
    }
    return tb
}

// Reserve claims the next slot and reports how long the caller must wait
// before using it. A reserved slot is spent even if the caller gives up.
func (tb *TokenBucket) Reserve() time.Duration {
    tb.mu.Lock()
    defer tb.mu.Unlock()

    now := tb.now()
    if tb.next.Before(now) {
        tb.next = now
    }
    wait := tb.next.Sub(now) - tb.slack
    tb.next = tb.next.Add(tb.interval)
    if wait < 0 { return 0 }
    return wait
}

// Wait reserves a slot and sleeps until it is due or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
    return sleep(ctx, tb.Reserve())
}

func sleep(ctx context.Context, d time.Duration) error {
    if d <= 0 { return nil }
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}

// TokenBucketFetcher gates calls to F using a token bucket.
type TokenBucketFetcher struct {
    F  provider.Fetcher
    TB *TokenBucket
}

func (t *TokenBucketFetcher) Name() string { return t.F.Name() }

func (t *TokenBucketFetcher) Fetch(ctx context.Context) ([]provider.Record, error) {
    if t.TB != nil {
        if err := t.TB.Wait(ctx); err != nil {
            return nil, &provider.FetchError{Source: t.F.Name(), Kind: provider.KindTransport, Err: err}
        }
    }
    return t.F.Fetch(ctx)
}
