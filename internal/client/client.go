// Package client performs the HTTP requests of the updater: conditional
// catalog fetches and streaming image downloads.
package client

import (
	"net/http"
	"time"

	"spaceeye/internal/logging"
)

const (
	retryInitialDelay   = 500 * time.Millisecond
	retryMaxDelay       = 5 * time.Second
	maxFetchAttempts    = 3
	defaultFetchTimeout = 30 * time.Second
	userAgent           = "spaceeye/1.0"
)

// Client shares one http.Client between catalog fetches and image streams.
// The http.Client should carry no Timeout: that would also cut off long image
// bodies. Catalog fetches are bounded per attempt by the fetch timeout instead.
type Client struct {
	http         *http.Client
	logger       *logging.Logger
	fetchTimeout time.Duration
}

func New(httpClient *http.Client, logger *logging.Logger) *Client {
	if logger == nil {
		panic("client.New: logger must not be nil")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, logger: logger.Scope("http"), fetchTimeout: defaultFetchTimeout}
}

// WithFetchTimeout bounds each catalog fetch attempt. Zero or negative
// disables the bound. Streams opened with Open are never affected.
func (c *Client) WithFetchTimeout(timeout time.Duration) *Client {
	c.fetchTimeout = timeout
	return c
}
