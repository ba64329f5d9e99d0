// Package fetch performs the GET requests of every poller and classifies
// their failures.
package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies poll failures for logging and metrics.
type ErrorType string

const (
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeParse       ErrorType = "parse_error"
	ErrTypeUnexpected  ErrorType = "unexpected"
)

// LogLevel determines whether a PollError is logged at WARN or ERROR.
type LogLevel int

const (
	LevelWarn LogLevel = iota
	LevelError
)

// PollError is a classified failure of one fetch.
type PollError struct {
	Type       ErrorType
	Level      LogLevel
	StatusCode int
	URL        string
	// Payload is a short prefix of the offending response body, if any.
	Payload string
	Cause   error
}

func (e *PollError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("poll %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("poll %s: %s for %s", e.Type, e.Cause, e.URL)
}

func (e *PollError) Unwrap() error { return e.Cause }

// ClassifyHTTPStatus creates a PollError from a non-2xx status code.
func ClassifyHTTPStatus(statusCode int, url string) *PollError {
	cause := fmt.Errorf("HTTP %d", statusCode)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &PollError{Type: ErrTypeRateLimited, Level: LevelWarn, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode == http.StatusForbidden:
		// The video API answers 403 for an exhausted quota or a bad key.
		return &PollError{Type: ErrTypeForbidden, Level: LevelError, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
		return &PollError{Type: ErrTypeNotFound, Level: LevelWarn, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode >= http.StatusInternalServerError && statusCode <= 599:
		return &PollError{Type: ErrTypeUpstream, Level: LevelWarn, StatusCode: statusCode, URL: url, Cause: cause}
	default:
		return &PollError{Type: ErrTypeUnexpected, Level: LevelError, StatusCode: statusCode, URL: url, Cause: cause}
	}
}

// ClassifyNetworkError creates a PollError for DNS, dial or timeout failures.
func ClassifyNetworkError(cause error, url string) *PollError {
	return &PollError{Type: ErrTypeNetwork, Level: LevelWarn, URL: url, Cause: cause}
}

// ClassifyParseError creates a PollError for a response that could not be
// decoded. payload is truncated before being attached.
func ClassifyParseError(cause error, url string, payload []byte) *PollError {
	return &PollError{Type: ErrTypeParse, Level: LevelWarn, URL: url, Payload: snippet(payload), Cause: cause}
}

// TypeOf returns the classification of err, or ErrTypeUnexpected when err
// is not a PollError.
func TypeOf(err error) ErrorType {
	var pollErr *PollError
	if errors.As(err, &pollErr) {
		return pollErr.Type
	}
	return ErrTypeUnexpected
}

const maxPayloadSnippet = 256

func snippet(payload []byte) string {
	if len(payload) > maxPayloadSnippet {
		return string(payload[:maxPayloadSnippet]) + "…"
	}
	return string(payload)
}
