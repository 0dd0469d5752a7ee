package telemetry

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepMetrics(t *testing.T) {
	m := NewSweepMetrics()

	m.ObserveTrial("omp", 2, 0.5)
	m.ObserveTrial("omp", 2, 0.25)
	m.ObserveTrial("seq", 1, 1.0)
	m.ConfigurationDone("omp")
	m.ConfigurationFailed("pth")
	m.StratumFlushed(2, 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TrialsTotal.WithLabelValues("omp", "2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrialsTotal.WithLabelValues("seq", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigurationsTotal.WithLabelValues("omp", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigurationsTotal.WithLabelValues("pth", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StrataFlushedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LastFlushedThreads))
	assert.Equal(t, 2, testutil.CollectAndCount(m.TrialTime))
}

func TestSweepMetrics_Handler(t *testing.T) {
	m := NewSweepMetrics()
	m.StratumFlushed(4, time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lgabench_strata_flushed_total 1")
	assert.Contains(t, string(body), "lgabench_last_flushed_threads 4")
}

func TestStartMetricsServer(t *testing.T) {
	m := NewSweepMetrics()
	m.StratumFlushed(2, time.Second)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop, err := StartMetricsServer(ctx, addr, m)
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "lgabench_last_flushed_threads 2")

	t.Run("Address in use", func(t *testing.T) {
		_, err := StartMetricsServer(ctx, addr, NewSweepMetrics())
		assert.ErrorContains(t, err, "failed to start metrics server")
	})

	require.NoError(t, stop())
	assert.NoError(t, stop(), "stop is idempotent")

	_, err = http.Get(fmt.Sprintf("http://%s/metrics", addr))
	assert.Error(t, err, "server is down after stop")
}

func TestStartMetricsServer_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop, err := StartMetricsServer(ctx, "127.0.0.1:0", NewSweepMetrics())
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool {
		return stop() == nil
	}, time.Second, 10*time.Millisecond)
}
