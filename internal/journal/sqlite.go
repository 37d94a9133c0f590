package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"nsemirror/internal/provider/cache"
)

var _ Journal = (*SQLite)(nil)

// SQLite is a Journal backed by a single SQLite file.
type SQLite struct {
	db         *sql.DB
	maxEntries int
	logger     *zap.Logger
}

// NewSQLite opens path and applies the schema. maxEntries > 0 keeps only
// that many of the most recent entries.
func NewSQLite(path string, maxEntries int, logger *zap.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLite{db: db, maxEntries: maxEntries, logger: logger}, nil
}

func (j *SQLite) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = NewID(e.StartedAt)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO fetches
		(id, provider, origin, records, kind, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Provider, e.Origin, e.Records, e.Kind, e.Error,
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert fetch: %w", err)
	}
	if j.maxEntries > 0 {
		_, err = j.db.ExecContext(ctx, `
			DELETE FROM fetches
			WHERE id NOT IN (SELECT id FROM fetches ORDER BY id DESC LIMIT ?)`,
			j.maxEntries,
		)
		if err != nil {
			return fmt.Errorf("prune fetches: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, provider, origin, records, kind, error, started_at, duration_ms
		FROM fetches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query fetches: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var started string
		if err := rows.Scan(&e.ID, &e.Provider, &e.Origin, &e.Records, &e.Kind, &e.Error, &started, &e.DurationMS); err != nil {
			return nil, fmt.Errorf("scan fetch: %w", err)
		}
		e.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ObserveFetch records a coordinator fetch attempt. Failures are logged,
// never surfaced to the read path.
func (j *SQLite) ObserveFetch(ctx context.Context, ev cache.FetchEvent) {
	e := Entry{
		Provider:   ev.Provider,
		Origin:     string(ev.Origin),
		Records:    ev.Records,
		Kind:       string(ev.Kind),
		StartedAt:  ev.StartedAt,
		DurationMS: ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	if err := j.Record(ctx, e); err != nil {
		j.logger.Error("journal write failed", zap.Error(err))
	}
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
