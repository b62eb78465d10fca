package kernel

import (
	"fmt"
	"math"
	"runtime"
	"strings"
)

// Strategy selects how the pairwise accelerations are accumulated.
type Strategy int

const (
	// Symmetric visits each pair once and updates both bodies.
	Symmetric Strategy = iota
	// Naive visits every ordered pair; each body has a single writer.
	Naive
	// SoA copies positions into separate x, y, z arrays before the symmetric loop.
	SoA
)

var strategyNames = map[Strategy]string{
	Symmetric: "symmetric",
	Naive:     "naive",
	SoA:       "soa",
}

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{Symmetric, Naive, SoA}
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a case-insensitive name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidOptions, name)
}

// DefaultParallelThreshold is the body count above which calls go parallel.
const DefaultParallelThreshold = 64

// Options configures a Kernel.
type Options struct {
	Strategy Strategy

	// ParallelThreshold is the body count above which the outer loop is
	// split across workers. Zero or negative disables parallel execution.
	ParallelThreshold int

	// Workers is the goroutine count for parallel calls. Zero means
	// runtime.NumCPU().
	Workers int

	// Softening adds Softening^2 to every squared distance.
	Softening float64
}

// DefaultOptions returns the Symmetric strategy with DefaultParallelThreshold,
// one worker per CPU and no softening.
func DefaultOptions() Options {
	return Options{
		Strategy:          Symmetric,
		ParallelThreshold: DefaultParallelThreshold,
		Workers:           0,
		Softening:         0,
	}
}

// Validate reports an ErrInvalidOptions for an unknown strategy, negative
// workers or a negative or non-finite softening.
func (o Options) Validate() error {
	if _, ok := strategyNames[o.Strategy]; !ok {
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidOptions, int(o.Strategy))
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidOptions, o.Workers)
	}
	if math.IsNaN(o.Softening) || math.IsInf(o.Softening, 0) || o.Softening < 0 {
		return fmt.Errorf("%w: softening must be finite and >= 0, got %g", ErrInvalidOptions, o.Softening)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}
