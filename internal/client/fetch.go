package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"spaceeye/internal/logging"
)

const maxConfigBytes = 8 << 20

var ErrBodyTooLarge = errors.New("response body too large")

// Fetched is the outcome of a conditional GET.
type Fetched struct {
	NotModified bool
	ETag        string
	Body        []byte
}

// FetchConditional GETs url, sending etag as If-None-Match when set. A 304
// reply yields NotModified with no body. Each attempt is bounded by the fetch
// timeout. Transport errors, attempt timeouts and 5xx replies are retried with
// exponential backoff.
func (c *Client) FetchConditional(ctx context.Context, url, etag string) (Fetched, error) {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = retryInitialDelay
	retry.MaxInterval = retryMaxDelay
	retry.Reset()

	return backoff.Retry(ctx, func() (Fetched, error) {
		fetched, err := c.fetchOnce(ctx, url, etag)
		if err == nil {
			return fetched, nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrBodyTooLarge) || !IsRetryable(err) {
			return Fetched{}, backoff.Permanent(err)
		}
		return Fetched{}, err
	},
		backoff.WithBackOff(retry),
		backoff.WithMaxTries(maxFetchAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying fetch",
				logging.Field("url", url),
				logging.Field("error", err),
				logging.Field("next_retry", next.String()))
		}),
	)
}

func (c *Client) fetchOnce(ctx context.Context, url, etag string) (Fetched, error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fetched{}, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Fetched{}, err
	}
	defer resp.Body.Close()
	c.logger.Debugf("GET %s -> %s", url, resp.Status)

	if resp.StatusCode == http.StatusNotModified {
		return Fetched{NotModified: true, ETag: etag}, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("fetch rejected",
			logging.Field("url", url),
			logging.Field("status", resp.Status),
			logging.Field("response", logging.FormatHTTPPayload(data)),
		)
		return Fetched{}, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBytes+1))
	if err != nil {
		return Fetched{}, err
	}
	if len(body) > maxConfigBytes {
		return Fetched{}, fmt.Errorf("%w: catalog at %s exceeds %d bytes", ErrBodyTooLarge, url, maxConfigBytes)
	}
	return Fetched{ETag: resp.Header.Get("ETag"), Body: body}, nil
}
