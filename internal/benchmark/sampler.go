package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrInvalidTiming = errors.New("timing is not a positive finite number")

// TrialObserver is notified of every accepted trial. It lets the driver feed metrics
// without the sampler depending on them.
type TrialObserver func(cfg Configuration, seconds float64)

// Sampler runs a configuration a fixed number of times and aggregates the timings.
type Sampler struct {
	runner  Runner
	runs    int
	observe TrialObserver
}

func NewSampler(runner Runner, runs int) *Sampler {
	return &Sampler{runner: runner, runs: runs}
}

// OnTrial registers an observer called after each valid trial.
func (s *Sampler) OnTrial(fn TrialObserver) {
	s.observe = fn
}

// Sample runs cfg s.runs times. Any failed, non-positive or infinite trial aborts the whole
// sample; partial samples are never aggregated.
func (s *Sampler) Sample(ctx context.Context, cfg Configuration) (Result, error) {
	if s.runs < 1 {
		return Result{}, fmt.Errorf("runs must be positive, got %d", s.runs)
	}

	times := make([]float64, 0, s.runs)
	for trial := 0; trial < s.runs; trial++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		t, err := s.runner.Run(ctx, cfg)
		if err != nil {
			return Result{}, fmt.Errorf("trial %d of %s: %w", trial+1, cfg, err)
		}
		if !(t > 0) || math.IsInf(t, 1) {
			return Result{}, fmt.Errorf("trial %d of %s: %w: %v", trial+1, cfg, ErrInvalidTiming, t)
		}
		if s.observe != nil {
			s.observe(cfg, t)
		}
		times = append(times, t)
	}

	mean, variance := Aggregate(times)
	return Result{
		ArrayExp:       cfg.ArrayExp,
		Threads:        cfg.Threads,
		Implementation: cfg.Implementation,
		Time:           mean,
		Stddev:         variance,
	}, nil
}

// Aggregate returns the arithmetic mean and the population variance (divided by n,
// no square root) of times.
func Aggregate(times []float64) (mean, variance float64) {
	if len(times) == 0 {
		return 0, 0
	}
	n := float64(len(times))
	mean = stat.Mean(times, nil)
	for _, t := range times {
		d := t - mean
		variance += d * d
	}
	return mean, variance / n
}
