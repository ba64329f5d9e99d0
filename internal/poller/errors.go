package poller

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/fetch"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/youtube"
)

var (
	// ErrPersist marks a failure to write the state files.
	ErrPersist = errors.New("persist state")
	// ErrNotify marks a failure to deliver a notification. The state was
	// already saved, so the item is not announced again.
	ErrNotify = errors.New("notify")
)

// Error types reported in logs and metrics besides the fetch types.
const (
	errTypeNotFound = "not_found"
	errTypeState    = "state"
	errTypeNotify   = "notify"
	errTypeCanceled = "canceled"
)

func classify(err error) string {
	var pollErr *fetch.PollError
	switch {
	case errors.Is(err, ErrNotify):
		return errTypeNotify
	case errors.Is(err, ErrPersist):
		return errTypeState
	case errors.Is(err, youtube.ErrNotFound):
		return errTypeNotFound
	case errors.As(err, &pollErr):
		return string(pollErr.Type)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errTypeCanceled
	default:
		return string(fetch.ErrTypeUnexpected)
	}
}
