package cache

import (
    "context"
    "sync"
    "sync/atomic"
    "time"

    "go.uber.org/zap"
    "golang.org/x/sync/singleflight"

    "nsemirror/internal/provider"
)

// Origin tags where the records of a Response came from.
type Origin string

const (
    OriginCache Origin = "cache"
    OriginLive  Origin = "live"
    OriginStale Origin = "stale"
)

// Snapshot is the output of the most recent successful fetch.
// Records is shared between readers and must not be modified.
type Snapshot struct {
    Records   []provider.Record
    FetchedAt time.Time
}

// Response is the result of one read.
// Timestamp is the FetchedAt of the returned data, zero when nothing was
// ever fetched successfully.
type Response struct {
    Origin    Origin
    Timestamp time.Time
    Data      []provider.Record
}

// FetchEvent describes one outbound fetch attempt.
type FetchEvent struct {
    Provider  string
    Origin    Origin
    Records   int
    Kind      provider.FailureKind
    Err       error
    StartedAt time.Time
    Duration  time.Duration
}

// Observer is notified after every fetch attempt. Cache hits are not reported.
// It runs on the reading goroutine that made the fetch, after the other
// readers sharing that fetch have been answered.
type Observer interface {
    ObserveFetch(ctx context.Context, ev FetchEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev FetchEvent)

func (f ObserverFunc) ObserveFetch(ctx context.Context, ev FetchEvent) { f(ctx, ev) }

// Coordinator owns the single Snapshot and decides per read whether to
// serve it or fetch a new one.
type Coordinator struct {
    fetcher      provider.Fetcher
    window       time.Duration
    fetchTimeout time.Duration
    now          func() time.Time
    logger       *zap.Logger
    observer     Observer

    current atomic.Pointer[Snapshot]
    // mu serialises swaps of current; it is never held across a fetch.
    mu sync.Mutex
    // sf coalesces concurrent refreshes into one outbound call.
    sf singleflight.Group
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
    return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
    return func(c *Coordinator) {
        if l != nil { c.logger = l }
    }
}

// WithObserver registers an observer for fetch attempts.
func WithObserver(o Observer) Option {
    return func(c *Coordinator) { c.observer = o }
}

// WithFetchTimeout bounds a single fetch. Zero leaves it to the fetcher's transport.
func WithFetchTimeout(d time.Duration) Option {
    return func(c *Coordinator) { c.fetchTimeout = d }
}

// New returns a Coordinator with an empty Snapshot.
func New(f provider.Fetcher, freshnessWindow time.Duration, opts ...Option) *Coordinator {
    c := &Coordinator{
        fetcher: f,
        window:  freshnessWindow,
        now:     time.Now,
        logger:  zap.NewNop(),
    }
    for _, opt := range opts {
        opt(c)
    }
    c.current.Store(&Snapshot{Records: []provider.Record{}})
    return c
}

// FreshnessWindow reports the configured window.
func (c *Coordinator) FreshnessWindow() time.Duration { return c.window }

// Snapshot returns the current snapshot.
func (c *Coordinator) Snapshot() Snapshot { return *c.current.Load() }

// Get serves the snapshot while it is fresh, otherwise fetches.
// A failed or empty fetch leaves the snapshot untouched and returns it tagged stale.
func (c *Coordinator) Get(ctx context.Context) Response {
    if snap := c.current.Load(); c.fresh(snap, c.now()) {
        return respond(OriginCache, snap)
    }
    // Only the caller whose closure runs sees ev; it reports the attempt
    // once the flight is over so coalesced waiters never wait on observers.
    var ev *FetchEvent
    v, _, _ := c.sf.Do("refresh", func() (any, error) {
        res, e := c.refresh(ctx)
        ev = e
        return res, nil
    })
    if ev != nil && c.observer != nil {
        c.observer.ObserveFetch(context.WithoutCancel(ctx), *ev)
    }
    return v.(Response)
}

func (c *Coordinator) fresh(snap *Snapshot, now time.Time) bool {
    return len(snap.Records) > 0 && now.Sub(snap.FetchedAt) < c.window
}

// refresh fetches and swaps the snapshot. The event is nil when no fetch
// was made.
func (c *Coordinator) refresh(ctx context.Context) (Response, *FetchEvent) {
    started := c.now()
    // Another flight may have landed between the caller's check and ours.
    if snap := c.current.Load(); c.fresh(snap, started) {
        return respond(OriginCache, snap), nil
    }

    // The fetch is shared by every caller in the flight, so no single
    // caller's cancellation may abort it.
    fctx := context.WithoutCancel(ctx)
    if c.fetchTimeout > 0 {
        var cancel context.CancelFunc
        fctx, cancel = context.WithTimeout(fctx, c.fetchTimeout)
        defer cancel()
    }

    recs, err := c.fetcher.Fetch(fctx)
    took := c.now().Sub(started)
    ev := FetchEvent{Provider: c.fetcher.Name(), StartedAt: started, Duration: took}

    if err == nil && len(recs) > 0 {
        snap := c.store(recs, started)
        ev.Origin, ev.Records = OriginLive, len(recs)
        c.logger.Info("snapshot refreshed",
            zap.String("provider", ev.Provider),
            zap.Int("records", len(recs)),
            zap.Duration("took", took),
        )
        return respond(OriginLive, snap), &ev
    }

    if err == nil {
        ev.Kind = provider.KindEmpty
    } else {
        ev.Kind, ev.Err = provider.KindOf(err), err
    }
    snap := c.current.Load()
    ev.Origin, ev.Records = OriginStale, len(snap.Records)
    c.logger.Warn("fetch failed, serving stale snapshot",
        zap.String("provider", ev.Provider),
        zap.String("kind", string(ev.Kind)),
        zap.Error(err),
        zap.Int("records", len(snap.Records)),
        zap.Time("fetched_at", snap.FetchedAt),
    )
    return respond(OriginStale, snap), &ev
}

// store swaps in a new snapshot unless a newer one already landed.
// It returns whichever snapshot is current afterwards.
func (c *Coordinator) store(recs []provider.Record, at time.Time) *Snapshot {
    c.mu.Lock()
    defer c.mu.Unlock()
    cur := c.current.Load()
    if at.Before(cur.FetchedAt) {
        return cur
    }
    next := &Snapshot{Records: recs, FetchedAt: at}
    c.current.Store(next)
    return next
}

func respond(o Origin, snap *Snapshot) Response {
    return Response{Origin: o, Timestamp: snap.FetchedAt, Data: snap.Records}
}
