// Package bench times the kernel strategies over a grid of body counts and
// cross-checks their outputs against each other.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pointmass/internal/system"
	"github.com/san-kum/pointmass/kernel"
)

var ErrInvalidRunner = errors.New("bench: invalid runner")

// Result holds the timing statistics of one (strategy, size) case.
type Result struct {
	Strategy    string  `json:"strategy"`
	Bodies      int     `json:"bodies"`
	Iterations  int     `json:"iterations"`
	MeanNs      float64 `json:"mean_ns"`
	StdDevNs    float64 `json:"stddev_ns"`
	PairsPerSec float64 `json:"pairs_per_sec"`
}

type Report struct {
	Timestamp         time.Time `json:"timestamp"`
	GoMaxProcs        int       `json:"gomaxprocs"`
	Workers           int       `json:"workers"`
	ParallelThreshold int       `json:"parallel_threshold"`
	Seed              int64     `json:"seed"`
	Results           []Result  `json:"results"`
}

// Series returns the mean ns/op of one strategy in report order.
func (r *Report) Series(strategy string) (bodies []int, meanNs []float64) {
	for _, res := range r.Results {
		if res.Strategy == strategy {
			bodies = append(bodies, res.Bodies)
			meanNs = append(meanNs, res.MeanNs)
		}
	}
	return bodies, meanNs
}

// Strategies lists the strategies present in the report, first-seen order.
func (r *Report) Strategies() []string {
	seen := make(map[string]bool)
	var names []string
	for _, res := range r.Results {
		if !seen[res.Strategy] {
			seen[res.Strategy] = true
			names = append(names, res.Strategy)
		}
	}
	return names
}

type Progress struct {
	Done   int
	Total  int
	Result Result
}

type Runner struct {
	Sizes             []int
	Strategies        []kernel.Strategy
	Iterations        int
	Workers           int
	ParallelThreshold int
	Softening         float64
	Seed              int64
	Logger            *slog.Logger
}

func (r *Runner) validate() error {
	if r.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidRunner, r.Iterations)
	}
	if len(r.Sizes) == 0 || len(r.Strategies) == 0 {
		return fmt.Errorf("%w: need at least one size and one strategy", ErrInvalidRunner)
	}
	for _, n := range r.Sizes {
		if n <= 0 {
			return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidRunner, n)
		}
	}
	return nil
}

// Run times every (size, strategy) case. ctx is checked between cases only.
// If progress is non-nil it receives one update per case and is closed when
// Run returns. On cancellation the partial report is returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, progress chan<- Progress) (*Report, error) {
	if progress != nil {
		defer close(progress)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{
		Timestamp:         time.Now(),
		GoMaxProcs:        runtime.GOMAXPROCS(0),
		Workers:           r.Workers,
		ParallelThreshold: r.ParallelThreshold,
		Seed:              r.Seed,
	}
	total := len(r.Sizes) * len(r.Strategies)

	for _, n := range r.Sizes {
		state, mu := system.Random(n, r.Seed).Pack()
		out := make([]float64, len(state))

		for _, s := range r.Strategies {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			k, err := kernel.New(kernel.Options{
				Strategy:          s,
				ParallelThreshold: r.ParallelThreshold,
				Workers:           r.Workers,
				Softening:         r.Softening,
			})
			if err != nil {
				return nil, err
			}

			res, err := r.measure(k, state, mu, out)
			if err != nil {
				return nil, err
			}
			report.Results = append(report.Results, res)

			logger.Debug("bench case done",
				"strategy", res.Strategy,
				"bodies", res.Bodies,
				"mean_ns", res.MeanNs,
			)

			if progress != nil {
				select {
				case progress <- Progress{Done: len(report.Results), Total: total, Result: res}:
				case <-ctx.Done():
					return report, ctx.Err()
				}
			}
		}
	}

	return report, nil
}

func (r *Runner) measure(k *kernel.Kernel, state, mu, out []float64) (Result, error) {
	// warm the scratch pool and caches
	if err := k.DerivativeInto(state, mu, out); err != nil {
		return Result{}, err
	}

	samples := make([]float64, r.Iterations)
	for i := range samples {
		start := time.Now()
		if err := k.DerivativeInto(state, mu, out); err != nil {
			return Result{}, err
		}
		samples[i] = float64(time.Since(start).Nanoseconds())
	}

	n := len(mu)
	mean, std := stat.MeanStdDev(samples, nil)
	if r.Iterations == 1 {
		std = 0
	}

	res := Result{
		Strategy:   k.Options().Strategy.String(),
		Bodies:     n,
		Iterations: r.Iterations,
		MeanNs:     mean,
		StdDevNs:   std,
	}
	if pairs := float64(n*(n-1)) / 2; mean > 0 {
		res.PairsPerSec = pairs / (mean / 1e9)
	}
	return res, nil
}
