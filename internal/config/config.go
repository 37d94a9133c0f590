package config

import (
    "errors"
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

type Server struct {
    Port        string `mapstructure:"port" validate:"required,numeric"`
    Environment string `mapstructure:"environment" validate:"oneof=development production"`
}

type Source struct {
    URL                   string `mapstructure:"url" validate:"required,url"`
    Layout                string `mapstructure:"layout" validate:"oneof=volume compact"`
    TimeoutSec            int    `mapstructure:"timeout_sec" validate:"min=1"`
    UserAgent             string `mapstructure:"user_agent"`
    MinRequestIntervalSec int    `mapstructure:"min_request_interval_sec" validate:"min=0"`
    MaxRequestsPerMinute  int    `mapstructure:"max_requests_per_minute" validate:"min=0"`
    Burst                 int    `mapstructure:"burst" validate:"min=0"`
}

type Cache struct {
    FreshnessWindowSec int `mapstructure:"freshness_window_sec" validate:"min=1"`
}

type Journal struct {
    Path       string `mapstructure:"path"`
    MaxEntries int    `mapstructure:"max_entries" validate:"min=0"`
}

type Warmer struct {
    IntervalSec int `mapstructure:"interval_sec" validate:"min=0"`
}

type Log struct {
    Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type Config struct {
    Server  Server  `mapstructure:"server"`
    Source  Source  `mapstructure:"source"`
    Cache   Cache   `mapstructure:"cache"`
    Journal Journal `mapstructure:"journal"`
    Warmer  Warmer  `mapstructure:"warmer"`
    Log     Log     `mapstructure:"log"`
}

func Default() Config {
    return Config{
        Server:  Server{Port: "5000", Environment: "development"},
        Source:  Source{URL: "https://afx.kwayisi.org/nse/", Layout: "volume", TimeoutSec: 10},
        Cache:   Cache{FreshnessWindowSec: 60},
        Journal: Journal{MaxEntries: 1000},
        Log:     Log{Level: "info"},
    }
}

func (s Source) Timeout() time.Duration { return time.Duration(s.TimeoutSec) * time.Second }

func (s Source) MinInterval() time.Duration {
    return time.Duration(s.MinRequestIntervalSec) * time.Second
}

func (c Cache) FreshnessWindow() time.Duration {
    return time.Duration(c.FreshnessWindowSec) * time.Second
}

func (w Warmer) Interval() time.Duration { return time.Duration(w.IntervalSec) * time.Second }

// keys lists every setting that can be overridden from the environment.
var keys = []string{
    "server.environment",
    "source.url", "source.layout", "source.timeout_sec", "source.user_agent",
    "source.min_request_interval_sec", "source.max_requests_per_minute", "source.burst",
    "cache.freshness_window_sec",
    "journal.path", "journal.max_entries",
    "warmer.interval_sec",
    "log.level",
}

// Load reads config from path (JSON or YAML by extension); a path that does
// not exist is an error. If path is empty, ./config.json is used when present
// and defaults apply otherwise.
// A .env file is loaded first and environment variables override the file.
func Load(path string) (Config, error) {
    _ = godotenv.Load()

    def := Default()
    v := viper.New()
    v.SetDefault("server.port", def.Server.Port)
    v.SetDefault("server.environment", def.Server.Environment)
    v.SetDefault("source.url", def.Source.URL)
    v.SetDefault("source.layout", def.Source.Layout)
    v.SetDefault("source.timeout_sec", def.Source.TimeoutSec)
    v.SetDefault("source.user_agent", def.Source.UserAgent)
    v.SetDefault("source.min_request_interval_sec", def.Source.MinRequestIntervalSec)
    v.SetDefault("source.max_requests_per_minute", def.Source.MaxRequestsPerMinute)
    v.SetDefault("source.burst", def.Source.Burst)
    v.SetDefault("cache.freshness_window_sec", def.Cache.FreshnessWindowSec)
    v.SetDefault("journal.path", def.Journal.Path)
    v.SetDefault("journal.max_entries", def.Journal.MaxEntries)
    v.SetDefault("warmer.interval_sec", def.Warmer.IntervalSec)
    v.SetDefault("log.level", def.Log.Level)

    if path == "" {
        _, err := os.Stat("config.json")
        switch {
        case err == nil:
            path = "config.json"
        case !errors.Is(err, os.ErrNotExist):
            return def, fmt.Errorf("read config: %w", err)
        }
    }
    if path != "" {
        if _, err := os.Stat(path); err != nil {
            return def, fmt.Errorf("read config: %w", err)
        }
        v.SetConfigFile(path)
        if err := v.ReadInConfig(); err != nil {
            return def, fmt.Errorf("read config: %w", err)
        }
    }

    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()
    // PORT is what most hosting platforms inject.
    if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
        return def, fmt.Errorf("bind env server.port: %w", err)
    }
    for _, k := range keys {
        if err := v.BindEnv(k); err != nil {
            return def, fmt.Errorf("bind env %s: %w", k, err)
        }
    }

    var cfg Config
    if err := v.Unmarshal(&cfg); err != nil {
        return def, fmt.Errorf("parse config: %w", err)
    }
    cfg.Source.Layout = strings.ToLower(strings.TrimSpace(cfg.Source.Layout))
    cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

    if err := validator.New().Struct(cfg); err != nil {
        return cfg, fmt.Errorf("invalid config: %w", err)
    }
    return cfg, nil
}
