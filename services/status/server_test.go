package status

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricewatcher/config"
	"sjsage522/pricewatcher/services/metrics"
	"sjsage522/pricewatcher/services/worker"
)

type fakeSource struct {
	last *worker.CycleSummary
	seen int
}

func (f fakeSource) LastSummary() (worker.CycleSummary, bool) {
	if f.last == nil {
		return worker.CycleSummary{}, false
	}
	return *f.last, true
}

func (f fakeSource) SeenKeys() int {
	return f.seen
}

func newTestServer(t *testing.T, source StatsSource) *httptest.Server {
	t.Helper()
	cfg := &config.Config{SiteName: "Shop", BaseURL: "https://shop.example.com", MaxPrice: 10}
	m := metrics.NewMetrics()
	m.IncFound()
	server := httptest.NewServer(NewServer(cfg, source, m).Routes())
	t.Cleanup(server.Close)
	return server
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, fakeSource{})

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStats(t *testing.T) {
	last := &worker.CycleSummary{ID: "c1", Iteration: 4, Checked: 30, Found: 2, Duration: time.Second}
	server := newTestServer(t, fakeSource{last: last, seen: 17})

	resp, err := http.Get(server.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, "Shop", stats.Site)
	assert.Equal(t, 17, stats.SeenKeys)
	require.NotNil(t, stats.LastCycle)
	assert.Equal(t, 4, stats.LastCycle.Iteration)
	assert.Equal(t, 2, stats.LastCycle.Found)
}

func TestStatsBeforeFirstCycle(t *testing.T) {
	server := newTestServer(t, fakeSource{})

	resp, err := http.Get(server.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Nil(t, stats.LastCycle)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, fakeSource{})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pricewatch_products_found_total 1")
}
