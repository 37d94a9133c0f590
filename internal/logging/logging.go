// Package logging builds the process-wide zap logger.
package logging

import (
    "fmt"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a JSON production logger when env is "production" and a
// console development logger otherwise. level is a zap level name.
func New(env, level string) (*zap.Logger, error) {
    lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
    if err != nil {
        return nil, fmt.Errorf("log level: %w", err)
    }

    var cfg zap.Config
    if strings.EqualFold(env, "production") {
        cfg = zap.NewProductionConfig()
    } else {
        cfg = zap.NewDevelopmentConfig()
    }
    cfg.Level = zap.NewAtomicLevelAt(lvl)
    return cfg.Build()
}
