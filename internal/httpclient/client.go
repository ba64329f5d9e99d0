// Package httpclient builds the outbound *http.Client shared by the video
// API client and the portal fetcher.
package httpclient

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a whole request including the body read.
	DefaultTimeout = 5 * time.Second

	defaultMaxIdleConns          = 10
	defaultMaxIdleConnsPerHost   = 2
	defaultIdleConnTimeout       = 90 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
)

// Config configures an HTTP client.
type Config struct {
	// Timeout is the per-request limit. Zero means DefaultTimeout.
	Timeout time.Duration
	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// New creates an *http.Client with pooled keep-alive connections. Polling
// cadences are slow, so the idle pool is kept small.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if cfg.UserAgent != "" {
		transport = &userAgentTransport{next: transport, userAgent: cfg.UserAgent}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}
