package client

import (
	"context"
	"io"
	"net/http"

	"spaceeye/internal/logging"
)

// Stream is an open response body with its reported metadata. The caller must
// Close it.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

func (s *Stream) Close() error {
	if s == nil || s.Body == nil {
		return nil
	}
	return s.Body.Close()
}

// Open starts a GET of url and returns its body unread. Cancelling ctx aborts
// the transfer and any pending reads.
func (c *Client) Open(ctx context.Context, url string) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("GET %s -> %s", url, resp.Status)

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		_ = resp.Body.Close()
		c.logger.Warn("download rejected",
			logging.Field("url", url),
			logging.Field("status", resp.Status),
			logging.Field("response", logging.FormatHTTPPayload(data)),
		)
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: url}
	}
	return &Stream{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}
