package benchmark

import (
	"errors"
	"fmt"
	"math/bits"
	"path/filepath"
)

// Implementation identifies which variant of the benchmarked program is timed.
type Implementation int

const (
	Sequential Implementation = iota
	OpenMP
	Pthread
)

// Implementations lists every variant in enumeration order.
var Implementations = []Implementation{Sequential, OpenMP, Pthread}

var ErrUnknownImplementation = errors.New("unknown implementation tag")

// Tag returns the lowercase tag used on the command line and in the results table.
func (i Implementation) Tag() string {
	switch i {
	case Sequential:
		return "seq"
	case OpenMP:
		return "omp"
	case Pthread:
		return "pth"
	default:
		return fmt.Sprintf("Implementation(%d)", int(i))
	}
}

func (i Implementation) String() string {
	return i.Tag()
}

func (i Implementation) MarshalText() ([]byte, error) {
	return []byte(i.Tag()), nil
}

func (i *Implementation) UnmarshalText(text []byte) error {
	impl, err := ParseImplementation(string(text))
	if err != nil {
		return err
	}
	*i = impl
	return nil
}

// ParseImplementation maps a tag back to its Implementation.
func ParseImplementation(tag string) (Implementation, error) {
	for _, impl := range Implementations {
		if impl.Tag() == tag {
			return impl, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownImplementation, tag)
}

// MaxArrayExp is the largest array exponent whose grid size fits in an int.
const MaxArrayExp = bits.UintSize - 2

// Configuration is one point of the sweep space.
type Configuration struct {
	Threads        int
	ArrayExp       int
	Implementation Implementation
}

// GridSize is the problem size passed to the benchmark, 2^ArrayExp.
func (c Configuration) GridSize() int {
	return 1 << c.ArrayExp
}

func (c Configuration) String() string {
	return fmt.Sprintf("threads=%d array_exp=%d impl=%s", c.Threads, c.ArrayExp, c.Implementation)
}

// Result holds the aggregated timing of one Configuration.
//
// Stddev carries the population variance of the samples, not its square root.
// Existing tables and plots depend on that value, so the name is kept.
type Result struct {
	ArrayExp       int            `json:"array_exp"`
	Threads        int            `json:"threads"`
	Implementation Implementation `json:"implementation"`
	Time           float64        `json:"time"`
	Stddev         float64        `json:"stddev"`
}

// Params fixes the shape of a sweep and the identity of its output files.
type Params struct {
	MaxExp     int
	MaxThreads int
	Runs       int
}

// Validate reports parameters that cannot describe a sweep.
func (p Params) Validate() error {
	var errs []error
	if p.MaxExp < 0 {
		errs = append(errs, fmt.Errorf("max exp must not be negative, got %d", p.MaxExp))
	}
	if p.MaxExp > MaxArrayExp {
		errs = append(errs, fmt.Errorf("max exp must be at most %d, got %d", MaxArrayExp, p.MaxExp))
	}
	if p.MaxThreads < 1 {
		errs = append(errs, fmt.Errorf("max threads must be positive, got %d", p.MaxThreads))
	}
	if p.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be positive, got %d", p.Runs))
	}
	return errors.Join(errs...)
}

// MaxThreadExp is floor(log2(MaxThreads)).
func (p Params) MaxThreadExp() int {
	return log2(p.MaxThreads)
}

// Identity names the output files of this parameter set, so different sweeps never
// overwrite each other.
func (p Params) Identity() string {
	return fmt.Sprintf("%dme_%dmt_%druns", p.MaxExp, p.MaxThreads, p.Runs)
}

// TablePath is the results table for these parameters under dataDir.
func (p Params) TablePath(dataDir string) string {
	return filepath.Join(dataDir, "data_"+p.Identity()+".csv")
}

// PlotPath is the figure for these parameters under plotsDir.
func (p Params) PlotPath(plotsDir string) string {
	return filepath.Join(plotsDir, "plot_"+p.Identity()+".png")
}

func log2(n int) int {
	if n < 1 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}
