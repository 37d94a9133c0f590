package main

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/gin-gonic/gin"

    "nsemirror/internal/journal"
    "nsemirror/internal/movers"
    "nsemirror/internal/provider"
    "nsemirror/internal/provider/cache"
    "nsemirror/internal/version"
)

// stockReader is the read side of the cache coordinator.
type stockReader interface {
    Get(ctx context.Context) cache.Response
    Snapshot() cache.Snapshot
    FreshnessWindow() time.Duration
}

type fetchLister interface {
    Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

type api struct {
    stocks  stockReader
    fetches fetchLister // nil when the journal is disabled
    started time.Time
}

// stocksResponse is the wire shape of a read. Timestamp is Unix
// milliseconds of the data's fetch, 0 when nothing was ever fetched.
type stocksResponse struct {
    Source    string            `json:"source"`
    Timestamp int64             `json:"timestamp"`
    Data      []provider.Record `json:"data"`
}

type stockResponse struct {
    Source    string          `json:"source"`
    Timestamp int64           `json:"timestamp"`
    Data      provider.Record `json:"data"`
}

type moversResponse struct {
    Source    string         `json:"source"`
    Timestamp int64          `json:"timestamp"`
    Data      movers.Summary `json:"data"`
}

func unixMilli(t time.Time) int64 {
    if t.IsZero() { return 0 }
    return t.UnixMilli()
}

// listStocks never fails: a source outage is a stale (possibly empty) 200.
func (a *api) listStocks(c *gin.Context) {
    res := a.stocks.Get(c.Request.Context())
    c.JSON(http.StatusOK, stocksResponse{
        Source:    string(res.Origin),
        Timestamp: unixMilli(res.Timestamp),
        Data:      res.Data,
    })
}

func (a *api) getStock(c *gin.Context) {
    ticker := strings.TrimSpace(c.Param("ticker"))
    res := a.stocks.Get(c.Request.Context())
    for _, r := range res.Data {
        if strings.EqualFold(r.Ticker, ticker) {
            c.JSON(http.StatusOK, stockResponse{
                Source:    string(res.Origin),
                Timestamp: unixMilli(res.Timestamp),
                Data:      r,
            })
            return
        }
    }
    c.JSON(http.StatusNotFound, gin.H{
        "error":     "ticker not found: " + ticker,
        "source":    string(res.Origin),
        "timestamp": unixMilli(res.Timestamp),
    })
}

func (a *api) marketMovers(c *gin.Context) {
    limit, ok := queryLimit(c, 5, 50)
    if !ok { return }
    res := a.stocks.Get(c.Request.Context())
    c.JSON(http.StatusOK, moversResponse{
        Source:    string(res.Origin),
        Timestamp: unixMilli(res.Timestamp),
        Data:      movers.Summarize(res.Data, limit),
    })
}

func (a *api) recentFetches(c *gin.Context) {
    if a.fetches == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "fetch journal disabled"})
        return
    }
    limit, ok := queryLimit(c, 50, 500)
    if !ok { return }
    entries, err := a.fetches.Recent(c.Request.Context(), limit)
    if err != nil {
        _ = c.Error(err)
        c.JSON(http.StatusInternalServerError, gin.H{"error": "reading fetch journal failed"})
        return
    }
    c.JSON(http.StatusOK, gin.H{"fetches": entries})
}

// status reports on the snapshot without triggering a fetch.
func (a *api) status(c *gin.Context) {
    snap := a.stocks.Snapshot()
    var ageMS int64
    if !snap.FetchedAt.IsZero() {
        ageMS = time.Since(snap.FetchedAt).Milliseconds()
    }
    c.JSON(http.StatusOK, gin.H{
        "version":             version.String(),
        "records":             len(snap.Records),
        "fetched_at":          unixMilli(snap.FetchedAt),
        "age_ms":              ageMS,
        "freshness_window_ms": a.stocks.FreshnessWindow().Milliseconds(),
        "uptime_sec":          int64(time.Since(a.started).Seconds()),
        "journal":             a.fetches != nil,
    })
}

// queryLimit reads ?limit=, writing a 400 and returning false when invalid.
func queryLimit(c *gin.Context, def, max int) (int, bool) {
    raw := c.Query("limit")
    if raw == "" { return def, true }
    n, err := strconv.Atoi(raw)
    if err != nil || n <= 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
        return 0, false
    }
    if n > max { n = max }
    return n, true
}
