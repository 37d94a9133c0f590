package provider

import (
    "context"
    "errors"
    "fmt"
)

// Record is one row of the source listing table.
// Change is kept as the raw source text; consumers use its sign.
type Record struct {
    Ticker string  `json:"ticker"`
    Name   string  `json:"name"`
    Volume string  `json:"volume"`
    Price  float64 `json:"price"`
    Change string  `json:"change"`
}

// Fetcher retrieves the full instrument listing in source order.
// On success the slice is non-empty and err is nil; otherwise the slice
// is nil and err is a *FetchError.
type Fetcher interface {
    Name() string
    Fetch(ctx context.Context) ([]Record, error)
}

// FailureKind classifies why a fetch produced no records.
type FailureKind string

const (
    KindTransport FailureKind = "transport"
    KindStructure FailureKind = "structure"
    KindEmpty     FailureKind = "empty"
)

// FetchError is returned by fetchers for every unsuccessful fetch.
type FetchError struct {
    Source string
    Kind   FailureKind
    Err    error
}

func (e *FetchError) Error() string {
    if e.Err == nil {
        return fmt.Sprintf("%s: %s failure", e.Source, e.Kind)
    }
    return fmt.Sprintf("%s: %s failure: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf reports the failure kind carried by err. Errors that are not
// *FetchError (context cancellation, rate limiter waits) count as transport.
func KindOf(err error) FailureKind {
    if err == nil { return "" }
    var fe *FetchError
    if errors.As(err, &fe) { return fe.Kind }
    return KindTransport
}

// Collect runs f and folds any failure into an empty result.
func Collect(ctx context.Context, f Fetcher) []Record {
    recs, err := f.Fetch(ctx)
    if err != nil || len(recs) == 0 {
        return []Record{}
    }
    return recs
}
