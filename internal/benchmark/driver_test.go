package benchmark

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lgabench/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configRunner returns a timing derived from the configuration and fails on one
// configuration if requested.
type configRunner struct {
	failOn *Configuration
	calls  int
}

func (r *configRunner) Run(ctx context.Context, cfg Configuration) (float64, error) {
	r.calls++
	if r.failOn != nil && *r.failOn == cfg {
		return 0, nil
	}
	return float64(cfg.GridSize()) / float64(cfg.Threads), nil
}

type memoryArchive struct {
	saved    map[string][]Result
	err      error
	resetErr error
}

func (a *memoryArchive) ResetSweep(sweepID string) error {
	if a.resetErr != nil {
		return a.resetErr
	}
	delete(a.saved, sweepID)
	return nil
}

func (a *memoryArchive) SaveResults(sweepID string, results []Result) error {
	if a.err != nil {
		return a.err
	}
	if a.saved == nil {
		a.saved = make(map[string][]Result)
	}
	a.saved[sweepID] = append(a.saved[sweepID], results...)
	return nil
}

func TestDriver_Run(t *testing.T) {
	params := Params{MaxExp: 7, MaxThreads: 4, Runs: 2}
	store := NewCSVStore(params.TablePath(t.TempDir()))
	runner := &configRunner{}
	archive := &memoryArchive{}

	d := NewDriver(params, NewSampler(runner, params.Runs), store)
	d.Archive = archive
	d.Metrics = telemetry.NewSweepMetrics()

	results, err := d.Run(context.Background())
	require.NoError(t, err)

	expected := Configurations(params.MaxExp, params.MaxThreads)
	require.Len(t, results, len(expected))
	for i, cfg := range expected {
		assert.Equal(t, cfg.Threads, results[i].Threads)
		assert.Equal(t, cfg.ArrayExp, results[i].ArrayExp)
		assert.Equal(t, cfg.Implementation, results[i].Implementation)
		assert.Equal(t, float64(cfg.GridSize())/float64(cfg.Threads), results[i].Time)
		assert.Zero(t, results[i].Stddev)
	}
	assert.Equal(t, len(expected)*params.Runs, runner.calls)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, results, loaded)
	assert.Equal(t, results, archive.saved[params.Identity()])

	assert.Equal(t, 3.0, testutil.ToFloat64(d.Metrics.StrataFlushedTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(d.Metrics.LastFlushedThreads))
	assert.Equal(t, 3.0, testutil.ToFloat64(d.Metrics.ConfigurationsTotal.WithLabelValues("omp", "ok")))
}

func TestDriver_CrashBetweenStrata(t *testing.T) {
	params := Params{MaxExp: 7, MaxThreads: 4, Runs: 3}
	store := NewCSVStore(params.TablePath(t.TempDir()))
	// First configuration of the threads=4 stratum reports a zero timing.
	failOn := Configuration{Threads: 4, ArrayExp: 7, Implementation: OpenMP}
	runner := &configRunner{failOn: &failOn}

	d := NewDriver(params, NewSampler(runner, params.Runs), store)
	results, err := d.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTiming)

	loaded, loadErr := store.Load()
	require.NoError(t, loadErr)

	var durable []Result
	durable = append(durable, StratumOf(1, results)...)
	durable = append(durable, StratumOf(2, results)...)
	assert.Equal(t, durable, loaded, "exactly the completed strata are on disk")
	assert.Empty(t, StratumOf(4, loaded))
}

func TestDriver_ArchiveFailureAborts(t *testing.T) {
	params := Params{MaxExp: 6, MaxThreads: 2, Runs: 1}
	store := NewCSVStore(filepath.Join(t.TempDir(), "t.csv"))
	d := NewDriver(params, NewSampler(&configRunner{}, params.Runs), store)
	d.Archive = &memoryArchive{err: errors.New("disk full")}

	_, err := d.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestDriver_RerunReplacesArchive(t *testing.T) {
	params := Params{MaxExp: 7, MaxThreads: 4, Runs: 1}
	store := NewCSVStore(params.TablePath(t.TempDir()))
	archive := &memoryArchive{}

	first := NewDriver(params, NewSampler(&configRunner{}, params.Runs), store)
	first.Archive = archive
	_, err := first.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, archive.saved[params.Identity()], 9)

	failOn := Configuration{Threads: 2, ArrayExp: 6, Implementation: OpenMP}
	second := NewDriver(params, NewSampler(&configRunner{failOn: &failOn}, params.Runs), store)
	second.Archive = archive
	_, err = second.Run(context.Background())
	require.ErrorIs(t, err, ErrInvalidTiming)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, loaded, archive.saved[params.Identity()], "the archive mirrors the table, not the previous run")
}

func TestDriver_ArchiveResetFailure(t *testing.T) {
	params := Params{MaxExp: 6, MaxThreads: 2, Runs: 1}
	store := NewCSVStore(filepath.Join(t.TempDir(), "t.csv"))
	runner := &configRunner{}
	d := NewDriver(params, NewSampler(runner, params.Runs), store)
	d.Archive = &memoryArchive{resetErr: errors.New("locked")}

	_, err := d.Run(context.Background())
	assert.ErrorContains(t, err, "locked")
	assert.Zero(t, runner.calls)
}

func TestDriver_InvalidParams(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "t.csv"))
	d := NewDriver(Params{MaxExp: 6, MaxThreads: 2, Runs: 0}, NewSampler(&configRunner{}, 0), store)

	_, err := d.Run(context.Background())
	assert.Error(t, err)

	_, loadErr := store.Load()
	assert.ErrorIs(t, loadErr, ErrNotFound, "nothing is written for invalid parameters")
}

func TestDriver_EmptyStrata(t *testing.T) {
	params := Params{MaxExp: 6, MaxThreads: 8, Runs: 1}
	store := NewCSVStore(filepath.Join(t.TempDir(), "t.csv"))
	d := NewDriver(params, NewSampler(&configRunner{}, params.Runs), store)

	results, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Empty(t, StratumOf(4, results))
	assert.Empty(t, StratumOf(8, results))
}
