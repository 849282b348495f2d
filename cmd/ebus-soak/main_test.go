package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Leegeev/ebus/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdPrintsReport(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--bus-name", "cmd-test",
		"--publishers", "2",
		"--subscribers", "2",
		"--duration", "200ms",
		"--gc-interval", "20ms",
		"--seed", "7",
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	var report Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "cmd-test", report.Bus)
	assert.Equal(t, uint64(7), report.Seed)
	assert.Equal(t, 2, report.Publishers)
	assert.NotEmpty(t, report.RunID)
	assert.Positive(t, report.Published)
	assert.Zero(t, report.OrderViolations)
}

func TestRootCmdRejectsInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--queue-size", "-1"})
	require.Error(t, cmd.Execute())
}

func TestRouter(t *testing.T) {
	published := metrics.ForBus("router-test").Published
	published.Inc()
	want := `ebus_published_total{bus="router-test"} ` + strconv.FormatFloat(testutil.ToFloat64(published), 'g', -1, 64)
	srv := httptest.NewServer(newRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), want)
}
