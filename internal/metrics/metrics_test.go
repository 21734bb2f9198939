package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arkfeed.dev/arkfeed/internal/metrics"
)

func TestObserveRun(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	ended := time.Unix(1700000000, 0)

	m.ObserveRun("committed", 3*time.Second, ended)
	m.ObserveRun("failed", time.Second, ended.Add(time.Hour))
	m.SetFeedItems(12)

	body := scrape(t, m)
	require.Contains(t, body, `arkfeed_runs_total{status="committed"} 1`)
	require.Contains(t, body, `arkfeed_runs_total{status="failed"} 1`)
	require.Contains(t, body, `arkfeed_run_duration_seconds_count{status="committed"} 1`)
	require.Contains(t, body, "arkfeed_feed_items 12")
	// failed runs do not move the success timestamp
	require.Contains(t, body, "arkfeed_last_success_timestamp_seconds 1.7e+09")
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()
	var m *metrics.Metrics
	m.ObserveRun("committed", time.Second, time.Now())
	m.SetFeedItems(1)
}

func TestHandler(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	m.ObserveRun("unchanged", time.Second, time.Now())

	body := scrape(t, m)
	require.Contains(t, body, `arkfeed_runs_total{status="unchanged"} 1`)
	require.Contains(t, body, "go_goroutines")
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
