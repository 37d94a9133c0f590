// Package warmer re-issues the read operation on a fixed interval so the
// snapshot stays warm between client polls.
package warmer

import (
    "context"
    "fmt"
    "time"

    "github.com/go-co-op/gocron"
    "go.uber.org/zap"

    "nsemirror/internal/provider/cache"
)

// Reader is the read operation being kept warm.
type Reader interface {
    Get(ctx context.Context) cache.Response
}

type Warmer struct {
    reader   Reader
    interval time.Duration
    logger   *zap.Logger
    cron     *gocron.Scheduler
}

func New(r Reader, interval time.Duration, logger *zap.Logger) *Warmer {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &Warmer{
        reader:   r,
        interval: interval,
        logger:   logger,
        cron:     gocron.NewScheduler(time.UTC),
    }
}

// Start schedules the job, running it once immediately. Runs never overlap.
func (w *Warmer) Start() error {
    if w.interval <= 0 {
        return fmt.Errorf("warmer interval must be positive, got %s", w.interval)
    }
    w.cron.SingletonModeAll()
    if _, err := w.cron.Every(w.interval).Do(w.tick); err != nil {
        return fmt.Errorf("schedule warmer: %w", err)
    }
    w.cron.StartAsync()
    w.logger.Info("warmer started", zap.Duration("interval", w.interval))
    return nil
}

func (w *Warmer) Stop() {
    w.cron.Stop()
    w.logger.Info("warmer stopped")
}

func (w *Warmer) tick() {
    res := w.reader.Get(context.Background())
    w.logger.Debug("warm read",
        zap.String("origin", string(res.Origin)),
        zap.Int("records", len(res.Data)),
    )
}
