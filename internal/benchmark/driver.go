package benchmark

import (
	"context"
	"fmt"
	"time"

	"lgabench/internal/telemetry"
)

// Archive receives a copy of every flushed stratum, e.g. a database mirror.
// ResetSweep drops what a previous run of the same sweep left behind.
type Archive interface {
	ResetSweep(sweepID string) error
	SaveResults(sweepID string, results []Result) error
}

// Driver runs a full sweep, flushing each thread-count stratum as soon as it completes.
type Driver struct {
	Params  Params
	Sampler *Sampler
	Store   Store
	Archive Archive
	Metrics *telemetry.SweepMetrics
}

func NewDriver(params Params, sampler *Sampler, store Store) *Driver {
	return &Driver{Params: params, Sampler: sampler, Store: store}
}

// Run executes the sweep and returns every result in execution order. On error the
// strata flushed before the failure remain in the store; the current one is dropped.
func (d *Driver) Run(ctx context.Context) ([]Result, error) {
	if err := d.Params.Validate(); err != nil {
		return nil, err
	}
	if err := d.Store.Init(); err != nil {
		return nil, err
	}

	sweepID := d.Params.Identity()
	if d.Archive != nil {
		if err := d.Archive.ResetSweep(sweepID); err != nil {
			return nil, fmt.Errorf("failed to reset archived sweep %s: %w", sweepID, err)
		}
	}
	strata := Strata(d.Params.MaxExp, d.Params.MaxThreads)
	if d.Metrics != nil {
		d.Sampler.OnTrial(func(cfg Configuration, seconds float64) {
			d.Metrics.ObserveTrial(cfg.Implementation.Tag(), cfg.Threads, seconds)
		})
	}

	telemetry.LogInfo("Starting sweep", "sweep", sweepID, "strata", len(strata))

	var results []Result
	for _, stratum := range strata {
		start := time.Now()
		for _, cfg := range stratum.Configurations {
			telemetry.LogDebug("Sampling configuration",
				"threads", cfg.Threads, "array_exp", cfg.ArrayExp, "impl", cfg.Implementation.Tag())

			res, err := d.Sampler.Sample(ctx, cfg)
			if err != nil {
				if d.Metrics != nil {
					d.Metrics.ConfigurationFailed(cfg.Implementation.Tag())
				}
				return results, fmt.Errorf("sweep %s aborted in stratum threads=%d: %w", sweepID, stratum.Threads, err)
			}
			results = append(results, res)
			if d.Metrics != nil {
				d.Metrics.ConfigurationDone(cfg.Implementation.Tag())
			}
			telemetry.LogInfo("Configuration sampled",
				"threads", res.Threads, "array_exp", res.ArrayExp, "impl", res.Implementation.Tag(),
				"time", res.Time, "stddev", res.Stddev)
		}

		if err := d.flush(sweepID, stratum.Threads, results); err != nil {
			return results, err
		}
		if d.Metrics != nil {
			d.Metrics.StratumFlushed(stratum.Threads, time.Since(start))
		}
	}

	telemetry.LogInfo("Sweep complete", "sweep", sweepID, "results", len(results))
	return results, nil
}

func (d *Driver) flush(sweepID string, threads int, results []Result) error {
	if err := d.Store.AppendStratum(threads, results); err != nil {
		return fmt.Errorf("failed to flush stratum threads=%d: %w", threads, err)
	}
	if d.Archive != nil {
		if err := d.Archive.SaveResults(sweepID, StratumOf(threads, results)); err != nil {
			return fmt.Errorf("failed to archive stratum threads=%d: %w", threads, err)
		}
	}
	telemetry.LogDebug("Stratum flushed", "threads", threads)
	return nil
}

// StratumOf returns the results whose thread count is threads.
func StratumOf(threads int, results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Threads == threads {
			out = append(out, r)
		}
	}
	return out
}
