package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"nsemirror/internal/provider"
)

// maxBodyBytes caps how much of the listing page is read.
const maxBodyBytes = 8 << 20

// Fetch downloads the listing page and returns its valid rows in table order.
// Every failure is reported as a *provider.FetchError.
func (p *Provider) Fetch(ctx context.Context) ([]provider.Record, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return nil, p.fail(provider.KindTransport, fmt.Errorf("creating request: %w", err))
	}
	req.Header = p.header.Clone()
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
	}

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, p.fail(provider.KindTransport, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		return nil, p.fail(provider.KindTransport, fmt.Errorf("GET %s -> %d", p.url, res.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, p.fail(provider.KindTransport, fmt.Errorf("reading body: %w", err))
	}

	records, stats := ParseDocument(doc, p.columns)
	if stats.Tables == 0 {
		return nil, p.fail(provider.KindStructure, fmt.Errorf("no table in document"))
	}
	if len(records) == 0 {
		return nil, p.fail(provider.KindEmpty, fmt.Errorf("%d rows, none usable", stats.Rows))
	}

	p.logger.Debug("listing parsed",
		zap.String("provider", p.name),
		zap.Int("records", len(records)),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("took", time.Since(start)),
	)
	return records, nil
}

func (p *Provider) fail(kind provider.FailureKind, err error) error {
	return &provider.FetchError{Source: p.name, Kind: kind, Err: err}
}
