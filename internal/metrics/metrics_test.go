package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/metrics"
)

func TestMetrics_Observe(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	m.ObservePoll("video", "updated", 120*time.Millisecond)
	m.ObservePoll("video", "error", time.Second)
	m.ObserveError("video", "network")
	m.ObserveChange("rat run")
	m.ObserveNotification("rat run", nil)
	m.ObserveNotification("rat run", errors.New("smtp"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Polls.WithLabelValues("video", "updated")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PollErrors.WithLabelValues("video", "network")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Changes.WithLabelValues("rat run")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Notifications.WithLabelValues("rat run", "failed")), 0)
	assert.Positive(t, testutil.ToFloat64(m.LastSuccess.WithLabelValues("video")))
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObservePoll("video", "unchanged", time.Second)
		m.ObserveError("video", "parse")
		m.ObserveChange("video")
		m.ObserveNotification("video", nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObserveChange("video")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `puzzlewatch_changes_total{poller="video"} 1`)
}
