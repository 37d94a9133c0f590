package nse

import (
	"net/http"

	"go.uber.org/zap"
)

// DefaultURL is the public NSE listing page the mirror reads by default.
const DefaultURL = "https://afx.kwayisi.org/nse/"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=nse_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider scrapes the instrument table from a single listing page.
type Provider struct {
	// name identifies the provider in logs and errors.
	name string
	// url is the listing page address.
	url string
	// httpClient performs the outbound request.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// columns maps table cells to record fields.
	columns Columns
	logger  *zap.Logger
}

// Option is a configuration option for the Provider.
type Option func(*Provider)

// WithName sets the provider name used in logs and errors.
func WithName(name string) Option {
	return func(p *Provider) {
		p.name = name
	}
}

// WithURL sets the listing page address.
func WithURL(url string) Option {
	return func(p *Provider) {
		p.url = url
	}
}

// WithHTTPClient sets the HTTP client used for the outbound request.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(p *Provider) {
		for key, values := range header {
			for _, value := range values {
				p.header.Add(key, value)
			}
		}
	}
}

// WithColumns sets the table layout.
func WithColumns(columns Columns) Option {
	return func(p *Provider) {
		p.columns = columns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Provider for the NSE listing page.
func New(options ...Option) *Provider {
	var p = &Provider{
		name:       "NSE",
		url:        DefaultURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		columns:    ColumnsWithVolume,
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *Provider) Name() string { return p.name }
