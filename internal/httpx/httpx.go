package httpx

import (
    "net"
    "net/http"
    "time"
)

// Client wraps http.Client with pooled transport settings tuned for a
// single upstream host, plus default headers applied to every request.
type Client struct {
    HTTP      *http.Client
    UserAgent string
    Headers   map[string]string
}

// New returns a client whose total request time is capped at timeout.
// A non-positive timeout falls back to 10s so a fetch can never hang.
func New(timeout time.Duration) *Client {
    if timeout <= 0 { timeout = 10 * time.Second }
    transport := &http.Transport{
        Proxy: http.ProxyFromEnvironment,
        DialContext: (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
        MaxIdleConns:          16,
        MaxIdleConnsPerHost:   4,
        MaxConnsPerHost:       8,
        ForceAttemptHTTP2:     true,
        IdleConnTimeout:       90 * time.Second,
        TLSHandshakeTimeout:   5 * time.Second,
        ExpectContinueTimeout: 1 * time.Second,
        ResponseHeaderTimeout: timeout,
    }
    return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "nsemirror/dev"}
}

// Do sends req after filling in any default headers the caller left unset.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
    if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
        req.Header.Set("User-Agent", c.UserAgent)
    }
    for k, v := range c.Headers {
        if req.Header.Get(k) == "" {
            req.Header.Set(k, v)
        }
    }
    return c.HTTP.Do(req)
}
