package benchmark

import (
	"fmt"
	"sort"
)

// Speedup compares a parallel result with the sequential run of the same size.
type Speedup struct {
	Baseline Result
	Result   Result
	// Factor is baseline time over parallel time; above 1 means faster.
	Factor float64
	// Efficiency is Factor divided by the thread count.
	Efficiency float64
}

// Speedups pairs every parallel result with the sequential result at the same array
// exponent. Results without a sequential baseline are skipped.
func Speedups(results []Result) []Speedup {
	baselines := make(map[int]Result)
	for _, r := range results {
		if r.Implementation == Sequential {
			baselines[r.ArrayExp] = r
		}
	}

	var speedups []Speedup
	for _, r := range results {
		if r.Implementation == Sequential {
			continue
		}
		base, ok := baselines[r.ArrayExp]
		if !ok || r.Time <= 0 {
			continue
		}
		s := Speedup{Baseline: base, Result: r, Factor: base.Time / r.Time}
		if r.Threads > 0 {
			s.Efficiency = s.Factor / float64(r.Threads)
		}
		speedups = append(speedups, s)
	}

	sort.SliceStable(speedups, func(i, j int) bool {
		a, b := speedups[i].Result, speedups[j].Result
		if a.Threads != b.Threads {
			return a.Threads < b.Threads
		}
		if a.ArrayExp != b.ArrayExp {
			return a.ArrayExp < b.ArrayExp
		}
		return a.Implementation < b.Implementation
	})
	return speedups
}

func (s Speedup) String() string {
	return fmt.Sprintf("threads=%d array_exp=%d %s: %.2fx", s.Result.Threads, s.Result.ArrayExp, s.Result.Implementation, s.Factor)
}
