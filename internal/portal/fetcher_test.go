package portal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/fetch"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/portal"
)

func TestFetch(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/search":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<table><tr><td><a href="/p?id=1">Rat Run 1</a></td></tr></table>`))
		case "/empty":
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	fetcher := portal.NewFetcher(srv.Client(), "puzzlewatch-test")

	body, err := fetcher.Fetch(context.Background(), srv.URL+"/search")
	require.NoError(t, err)
	assert.Contains(t, string(body), "Rat Run 1")
	assert.Equal(t, "puzzlewatch-test", gotUA)

	// Revisiting the same URL must hit the server again.
	_, err = fetcher.Fetch(context.Background(), srv.URL+"/search")
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/broken")
	var pollErr *fetch.PollError
	require.ErrorAs(t, err, &pollErr)
	assert.Equal(t, fetch.ErrTypeUpstream, pollErr.Type)
	assert.Equal(t, http.StatusInternalServerError, pollErr.StatusCode)

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/empty")
	assert.ErrorIs(t, err, portal.ErrEmptyPage)
}

func TestFetch_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := portal.NewFetcher(nil, "").Fetch(context.Background(), addr+"/search")
	assert.Equal(t, fetch.ErrTypeNetwork, fetch.TypeOf(err))
}
