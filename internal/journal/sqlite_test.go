package journal

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsemirror/internal/provider"
	"nsemirror/internal/provider/cache"
)

func newTestSQLite(t *testing.T, maxEntries int) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLite(path, maxEntries, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t, 0)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='fetches'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "fetches", name)
}

func TestSQLite_RecordAndRecent(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t, 0)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, j.Record(t.Context(), Entry{
			Provider:   "NSE",
			Origin:     "live",
			Records:    60 + i,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			DurationMS: 120,
		}))
	}

	got, err := j.Recent(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 62, got[0].Records)
	assert.Equal(t, 61, got[1].Records)
	assert.True(t, got[0].StartedAt.Equal(base.Add(2*time.Minute)))
	assert.NotEmpty(t, got[0].ID)
}

func TestSQLite_Prunes(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t, 2)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(t.Context(), Entry{Provider: "NSE", Origin: "stale", StartedAt: base.Add(time.Duration(i) * time.Second)}))
	}

	got, err := j.Recent(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_ObserveFetch(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t, 0)
	var obs cache.Observer = j

	obs.ObserveFetch(t.Context(), cache.FetchEvent{
		Provider:  "NSE",
		Origin:    cache.OriginStale,
		Records:   10,
		Kind:      provider.KindTransport,
		Err:       errors.New("GET https://afx.kwayisi.org/nse/ -> 502"),
		StartedAt: time.Date(2025, 3, 10, 9, 1, 1, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	})

	got, err := j.Recent(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "stale", got[0].Origin)
	assert.Equal(t, "transport", got[0].Kind)
	assert.Contains(t, got[0].Error, "502")
	assert.EqualValues(t, 1500, got[0].DurationMS)
}

func TestNewID_Sortable(t *testing.T) {
	t.Parallel()

	at := time.Now()
	a := NewID(at)
	b := NewID(at)
	assert.Less(t, a, b)
}
