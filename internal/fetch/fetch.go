package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxBodyBytes caps every response body read by Get.
const maxBodyBytes = 5 * 1024 * 1024

// Get performs a GET request and returns the body of a 2xx response.
// Failures are returned as *PollError.
func Get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch new request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, Redact(rawURL))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ClassifyNetworkError(fmt.Errorf("read body: %w", err), Redact(rawURL))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		pollErr := ClassifyHTTPStatus(resp.StatusCode, Redact(rawURL))
		pollErr.Payload = snippet(body)
		return nil, pollErr
	}

	return body, nil
}

// Redact hides the API key query parameter so URLs can be logged.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
