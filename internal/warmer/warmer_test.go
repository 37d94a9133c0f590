package warmer

import (
    "context"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "nsemirror/internal/provider/cache"
)

type countingReader struct{ calls atomic.Int64 }

func (r *countingReader) Get(context.Context) cache.Response {
    r.calls.Add(1)
    return cache.Response{Origin: cache.OriginLive}
}

func TestWarmer_RunsOnInterval(t *testing.T) {
    r := &countingReader{}
    w := New(r, 20*time.Millisecond, nil)

    require.NoError(t, w.Start())
    require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
    w.Stop()

    after := r.calls.Load()
    time.Sleep(60 * time.Millisecond)
    require.LessOrEqual(t, r.calls.Load(), after+1)
}

func TestWarmer_RejectsNonPositiveInterval(t *testing.T) {
    w := New(&countingReader{}, 0, nil)
    require.Error(t, w.Start())
}
