package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/server"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
)

type stubState struct {
	st  state.State
	err error
}

func (s stubState) Snapshot(context.Context) (state.State, error) { return s.st, s.err }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router := server.NewRouter(server.Config{Version: "1.2.3"})

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])

	assert.Equal(t, http.StatusNotFound, get(t, router, "/state").Code)
}

func TestState(t *testing.T) {
	t.Parallel()

	st := state.State{
		Channel: domain.ChannelCursor{Channel: "UC1", LastID: "vid"},
		Video: domain.Video{
			Title:       "Miracle",
			ExternalID:  "vid",
			Duration:    time.Hour + 2*time.Minute + 3*time.Second,
			PuzzleLinks: []string{"https://sudokupad.app/x"},
		},
		Puzzles: map[string]domain.PuzzleLink{"rat run": {URL: "/p", Title: "Rat Run 1"}},
	}
	router := server.NewRouter(server.Config{State: stubState{st: st}})

	rec := get(t, router, "/state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"channel": {"channel": "UC1", "last_id": "vid"},
		"video": {
			"id": "vid",
			"title": "Miracle",
			"url": "https://www.youtube.com/watch?v=vid",
			"duration": "1:02:03",
			"puzzle_links": ["https://sudokupad.app/x"]
		},
		"puzzles": {"rat run": {"url": "/p", "title": "Rat Run 1"}}
	}`, rec.Body.String())
}

func TestState_KeeperStopped(t *testing.T) {
	t.Parallel()

	router := server.NewRouter(server.Config{State: stubState{err: errors.New("stopped")}})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, router, "/state").Code)
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObserveChange("video")
	router := server.NewRouter(server.Config{Metrics: m.Handler()})

	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "puzzlewatch_changes_total")
}

func TestServe_ServesUntilCancelled(t *testing.T) {
	t.Parallel()

	ln, err := server.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, ln, server.NewRouter(server.Config{Version: "t"}), logger.NewNop())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestServe_FailureIsLoggedNotReturned(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = server.Serve(ctx, ln, server.NewRouter(server.Config{}), logger.NewNop())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond, "Serve must wait for cancellation")
}

func TestListen_OccupiedAddress(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = taken.Close() })

	_, err = server.Listen(taken.Addr().String())
	assert.ErrorContains(t, err, "status server")
}
