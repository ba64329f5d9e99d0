// Package portal downloads puzzle-portal search pages.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/fetch"
)

// ErrEmptyPage is returned when the portal answers 2xx with no body.
var ErrEmptyPage = errors.New("portal: empty page")

// Fetcher retrieves one search page per call. Each call uses a fresh
// collector so concurrent pollers never share visit state.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher sending requests through client.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch downloads pageURL and returns the raw HTML. Failures are
// *fetch.PollError values.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxDepth(1),
	)
	if f.userAgent != "" {
		collector.UserAgent = f.userAgent
	}
	if f.client != nil {
		collector.SetClient(f.client)
	}

	var (
		body    []byte
		pollErr *fetch.PollError
	)

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			pollErr = fetch.ClassifyHTTPStatus(r.StatusCode, pageURL)
			pollErr.Cause = err
			return
		}
		pollErr = fetch.ClassifyNetworkError(err, pageURL)
	})

	visitErr := collector.Visit(pageURL)
	switch {
	case pollErr != nil:
		return nil, pollErr
	case visitErr != nil:
		return nil, fetch.ClassifyNetworkError(fmt.Errorf("visit: %w", visitErr), pageURL)
	case len(body) == 0:
		return nil, fetch.ClassifyParseError(ErrEmptyPage, pageURL, nil)
	}

	return body, nil
}
