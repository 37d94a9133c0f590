package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gin-gonic/gin"
    "go.uber.org/zap"

    "nsemirror/internal/config"
    "nsemirror/internal/httpx"
    "nsemirror/internal/journal"
    "nsemirror/internal/logging"
    "nsemirror/internal/provider/cache"
    "nsemirror/internal/provider/nse"
    "nsemirror/internal/provider/ratelimit"
    "nsemirror/internal/version"
    "nsemirror/internal/warmer"
)

func main() {
    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil { log.Fatalf("config: %v", err) }

    logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
    if err != nil { log.Fatalf("logger: %v", err) }
    defer func() { _ = logger.Sync() }()

    if cfg.Server.Environment == "production" {
        gin.SetMode(gin.ReleaseMode)
    }

    cols, err := nse.ColumnsByName(cfg.Source.Layout)
    if err != nil { logger.Fatal("source layout", zap.Error(err)) }

    httpClient := httpx.New(cfg.Source.Timeout())
    httpClient.UserAgent = version.UserAgent()
    if cfg.Source.UserAgent != "" {
        httpClient.UserAgent = cfg.Source.UserAgent
    }

    src := nse.New(
        nse.WithURL(cfg.Source.URL),
        nse.WithHTTPClient(httpClient),
        nse.WithColumns(cols),
        nse.WithLogger(logger.Named("nse")),
    )
    fetcher := ratelimit.Wrap(src, cfg.Source.MaxRequestsPerMinute, cfg.Source.Burst, cfg.Source.MinInterval())

    opts := []cache.Option{
        cache.WithLogger(logger.Named("cache")),
        cache.WithFetchTimeout(fetchBudget(cfg.Source)),
    }

    var fetches fetchLister
    if cfg.Journal.Path != "" {
        j, err := journal.NewSQLite(cfg.Journal.Path, cfg.Journal.MaxEntries, logger.Named("journal"))
        if err != nil { logger.Fatal("journal", zap.Error(err)) }
        defer func() { _ = j.Close() }()
        opts = append(opts, cache.WithObserver(j))
        fetches = j
    }

    coordinator := cache.New(fetcher, cfg.Cache.FreshnessWindow(), opts...)

    var w *warmer.Warmer
    if cfg.Warmer.IntervalSec > 0 {
        w = warmer.New(coordinator, cfg.Warmer.Interval(), logger.Named("warmer"))
        if err := w.Start(); err != nil { logger.Fatal("warmer", zap.Error(err)) }
    }

    a := &api{
        stocks:  coordinator,
        fetches: fetches,
        started: time.Now(),
    }
    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           newRouter(a, logger),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      fetchBudget(cfg.Source) + 10*time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        logger.Info("server listening",
            zap.String("addr", srv.Addr),
            zap.String("source", cfg.Source.URL),
            zap.Duration("freshness_window", cfg.Cache.FreshnessWindow()),
            zap.String("version", version.String()),
        )
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            logger.Fatal("server", zap.Error(err))
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    logger.Info("shutting down")

    if w != nil { w.Stop() }
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        logger.Warn("forced shutdown", zap.Error(err))
    }
}

// fetchBudget bounds one coordinator fetch: the transport timeout plus the
// longest a politeness gate may hold the call.
func fetchBudget(s config.Source) time.Duration {
    budget := s.Timeout()
    switch {
    case s.MaxRequestsPerMinute > 0:
        budget += time.Minute / time.Duration(s.MaxRequestsPerMinute)
    case s.MinRequestIntervalSec > 0:
        budget += s.MinInterval()
    }
    return budget
}
