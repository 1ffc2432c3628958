package client

import (
	"errors"
	"net/http"
)

type HTTPStatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "http request failed"
	}
	msg := e.Status
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "http request failed"
	}
	if e.URL != "" {
		return msg + " (" + e.URL + ")"
	}
	return msg
}

// IsRetryable reports whether err is worth another attempt: transport errors
// and 5xx responses are, client errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func IsNotFound(err error) bool {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusNotFound
}
