package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SweepMetrics tracks the progress of a sweep.
type SweepMetrics struct {
	registry *prometheus.Registry

	TrialsTotal         *prometheus.CounterVec
	TrialTime           *prometheus.HistogramVec
	ConfigurationsTotal *prometheus.CounterVec
	StrataFlushedTotal  prometheus.Counter
	StratumDuration     *prometheus.HistogramVec
	LastFlushedThreads  prometheus.Gauge
}

// NewSweepMetrics creates the sweep metrics on a private registry.
func NewSweepMetrics() *SweepMetrics {
	m := &SweepMetrics{registry: prometheus.NewRegistry()}

	m.TrialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lgabench_trials_total",
			Help: "Total number of benchmark trials executed",
		},
		[]string{"impl", "threads"},
	)

	m.TrialTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lgabench_trial_time",
			Help:    "Timing reported by each benchmark trial",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 10),
		},
		[]string{"impl"},
	)

	m.ConfigurationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lgabench_configurations_total",
			Help: "Configurations sampled, by outcome",
		},
		[]string{"impl", "status"},
	)

	m.StrataFlushedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lgabench_strata_flushed_total",
			Help: "Thread-count strata written to the results table",
		},
	)

	m.StratumDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lgabench_stratum_duration_seconds",
			Help:    "Wall time spent sampling one stratum",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"threads"},
	)

	m.LastFlushedThreads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lgabench_last_flushed_threads",
			Help: "Thread count of the most recently flushed stratum",
		},
	)

	m.registry.MustRegister(
		m.TrialsTotal,
		m.TrialTime,
		m.ConfigurationsTotal,
		m.StrataFlushedTotal,
		m.StratumDuration,
		m.LastFlushedThreads,
	)

	return m
}

func (m *SweepMetrics) ObserveTrial(impl string, threads int, value float64) {
	m.TrialsTotal.WithLabelValues(impl, strconv.Itoa(threads)).Inc()
	m.TrialTime.WithLabelValues(impl).Observe(value)
}

func (m *SweepMetrics) ConfigurationDone(impl string) {
	m.ConfigurationsTotal.WithLabelValues(impl, "ok").Inc()
}

func (m *SweepMetrics) ConfigurationFailed(impl string) {
	m.ConfigurationsTotal.WithLabelValues(impl, "failed").Inc()
}

func (m *SweepMetrics) StratumFlushed(threads int, elapsed time.Duration) {
	m.StrataFlushedTotal.Inc()
	m.StratumDuration.WithLabelValues(strconv.Itoa(threads)).Observe(elapsed.Seconds())
	m.LastFlushedThreads.Set(float64(threads))
}

// Registry exposes the underlying registry, mostly for tests.
func (m *SweepMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for these metrics.
func (m *SweepMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer binds addr and serves m on /metrics in the background. Binding
// errors are returned immediately. The server shuts down when ctx is done or the
// returned stop function is called, whichever comes first.
func StartMetricsServer(ctx context.Context, addr string, m *SweepMetrics) (stop func() error, err error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			LogWarn("Metrics server stopped", "addr", addr, "error", err)
		}
	}()
	LogInfo("Started metrics server", "addr", ln.Addr().String())

	var once sync.Once
	var shutdownErr error
	stop = func() error {
		once.Do(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownErr = srv.Shutdown(shutdownCtx)
		})
		return shutdownErr
	}
	go func() {
		<-ctx.Done()
		_ = stop()
	}()
	return stop, nil
}
