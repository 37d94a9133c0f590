package ratelimit

import (
    "context"
    "sync"
    "time"

    "nsemirror/internal/provider"
)

// MinInterval wraps a fetcher and enforces a minimum time between calls
// to the source. Concurrent calls wait until the interval has elapsed
// since the last call, or return early if the context is canceled.
type MinInterval struct {
    F        provider.Fetcher
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinInterval) Name() string { return m.F.Name() }

func (m *MinInterval) Fetch(ctx context.Context) ([]provider.Record, error) {
    if m.Interval > 0 {
        m.mu.Lock()
        wait := time.Until(m.last.Add(m.Interval))
        m.mu.Unlock()
        if err := sleep(ctx, wait); err != nil {
            return nil, &provider.FetchError{Source: m.F.Name(), Kind: provider.KindTransport, Err: err}
        }
    }
    recs, err := m.F.Fetch(ctx)
    if m.Interval > 0 {
        m.mu.Lock()
        m.last = time.Now()
        m.mu.Unlock()
    }
    return recs, err
}

// Wrap applies the configured gate to f. rpm takes precedence over
// minInterval; with neither set f is returned unchanged.
func Wrap(f provider.Fetcher, rpm, burst int, minInterval time.Duration) provider.Fetcher {
    if rpm > 0 {
        return &TokenBucketFetcher{F: f, TB: NewTokenBucket(rpm, burst)}
    }
    if minInterval > 0 {
        return &MinInterval{F: f, Interval: minInterval}
    }
    return f
}
