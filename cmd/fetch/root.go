package main

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "time"

    "github.com/spf13/cobra"
    "go.uber.org/zap"

    "nsemirror/internal/config"
    "nsemirror/internal/httpx"
    "nsemirror/internal/logging"
    "nsemirror/internal/provider"
    "nsemirror/internal/provider/nse"
    "nsemirror/internal/version"
)

type dump struct {
    Source    string            `json:"source"`
    Timestamp int64             `json:"timestamp"`
    Data      []provider.Record `json:"data"`
}

func newRootCmd() *cobra.Command {
    var (
        configPath string
        url        string
        layout     string
        timeout    time.Duration
        limit      int
        outPath    string
        verbose    bool
        allowEmpty bool
    )

    cmd := &cobra.Command{
        Use:           "fetch",
        Short:         "Fetch the listing page once and print the parsed rows as JSON",
        SilenceUsage:  true,
        SilenceErrors: true,
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, err := config.Load(configPath)
            if err != nil { return fmt.Errorf("config: %w", err) }
            if url != "" { cfg.Source.URL = url }
            if layout != "" { cfg.Source.Layout = layout }
            if timeout <= 0 { timeout = cfg.Source.Timeout() }

            level := "warn"
            if verbose { level = "debug" }
            logger, err := logging.New("development", level)
            if err != nil { return err }
            defer func() { _ = logger.Sync() }()

            cols, err := nse.ColumnsByName(cfg.Source.Layout)
            if err != nil { return err }

            httpClient := httpx.New(timeout)
            httpClient.UserAgent = version.UserAgent()
            if cfg.Source.UserAgent != "" {
                httpClient.UserAgent = cfg.Source.UserAgent
            }
            src := nse.New(
                nse.WithURL(cfg.Source.URL),
                nse.WithHTTPClient(httpClient),
                nse.WithColumns(cols),
                nse.WithLogger(logger),
            )

            ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
            defer cancel()

            started := time.Now()
            var d dump
            if allowEmpty {
                // same contract as the server's first read: failure is an empty stale result
                recs := provider.Collect(ctx, src)
                d = dump{Source: "stale", Data: recs}
                if len(recs) > 0 {
                    d.Source, d.Timestamp = "live", started.UnixMilli()
                }
            } else {
                recs, err := src.Fetch(ctx)
                if err != nil {
                    return fmt.Errorf("fetch %s (%s): %w", cfg.Source.URL, provider.KindOf(err), err)
                }
                d = dump{Source: "live", Timestamp: started.UnixMilli(), Data: recs}
            }
            logger.Info("fetched", zap.Int("records", len(d.Data)), zap.Duration("took", time.Since(started)))
            if outPath != "" {
                if err := writeDump(outPath, d); err != nil { return err }
                fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", len(d.Data), outPath)
            }

            if limit > 0 && len(d.Data) > limit {
                d.Data = d.Data[:limit]
            }
            return writeJSON(cmd.OutOrStdout(), d)
        },
    }

    cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")

    f := cmd.Flags()
    f.StringVar(&url, "url", "", "listing page URL (default from config)")
    f.StringVar(&layout, "layout", "", "column layout: volume or compact (default from config)")
    f.DurationVar(&timeout, "timeout", 0, "request timeout (default from config)")
    f.IntVar(&limit, "limit", 10, "rows to print, 0 for all")
    f.StringVar(&outPath, "out", "", "write the full result as JSON to this file")
    f.BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
    f.BoolVar(&allowEmpty, "allow-empty", false, "print an empty stale result instead of failing when the fetch fails")

    cmd.AddCommand(newVersionCmd())
    return cmd
}

func newVersionCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "version",
        Short: "Print build information",
        Run: func(cmd *cobra.Command, args []string) {
            fmt.Fprintln(cmd.OutOrStdout(), version.String())
        },
    }
}

func writeDump(path string, d dump) error {
    f, err := os.Create(path)
    if err != nil { return fmt.Errorf("create %s: %w", path, err) }
    if err := writeJSON(f, d); err != nil {
        _ = f.Close()
        return err
    }
    return f.Close()
}

func writeJSON(w io.Writer, v any) error {
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    enc.SetIndent("", "  ")
    if err := enc.Encode(v); err != nil {
        return fmt.Errorf("encode: %w", err)
    }
    return nil
}
