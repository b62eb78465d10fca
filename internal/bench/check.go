package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pointmass/internal/system"
	"github.com/san-kum/pointmass/kernel"
)

const DefaultTolerance = 1e-10

// Agreement compares one strategy configuration to the serial symmetric
// baseline on a random system of the given size.
type Agreement struct {
	Bodies     int     `json:"bodies"`
	Strategy   string  `json:"strategy"`
	Parallel   bool    `json:"parallel"`
	MaxRelDiff float64 `json:"max_rel_diff"`
}

// OK reports whether the difference is within tol. tol <= 0 selects
// DefaultTolerance. Non-finite differences never pass.
func (a Agreement) OK(tol float64) bool {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return a.MaxRelDiff <= tol
}

type candidate struct {
	strategy kernel.Strategy
	parallel bool
}

func candidates() []candidate {
	var cs []candidate
	for _, s := range kernel.Strategies() {
		cs = append(cs, candidate{s, false}, candidate{s, true})
	}
	return cs
}

// Check evaluates every strategy, serial and forced-parallel, against the
// serial symmetric result. Sizes are checked concurrently. Only Workers and
// Softening are taken from opts.
func Check(ctx context.Context, sizes []int, seed int64, opts kernel.Options) ([]Agreement, error) {
	for _, n := range sizes {
		if n <= 0 {
			return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidRunner, n)
		}
	}

	workers := opts.Workers
	if workers < 2 {
		workers = 4
	}
	cs := candidates()
	out := make([]Agreement, len(sizes)*len(cs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for si, n := range sizes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			state, mu := system.Random(n, seed).Pack()
			base, err := evaluate(kernel.Options{
				Strategy:  kernel.Symmetric,
				Softening: opts.Softening,
			}, state, mu)
			if err != nil {
				return err
			}

			for ci, c := range cs {
				o := kernel.Options{
					Strategy:  c.strategy,
					Softening: opts.Softening,
				}
				if c.parallel {
					o.ParallelThreshold = 1
					o.Workers = workers
				}
				got, err := evaluate(o, state, mu)
				if err != nil {
					return err
				}

				a := Agreement{
					Bodies:     n,
					Strategy:   c.strategy.String(),
					Parallel:   c.parallel,
					MaxRelDiff: relDiff(base[3*n:], got[3*n:]),
				}
				out[si*len(cs)+ci] = a
				slog.Debug("check", "bodies", n, "strategy", a.Strategy, "parallel", a.Parallel, "max_rel_diff", a.MaxRelDiff)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func evaluate(opts kernel.Options, state, mu []float64) ([]float64, error) {
	k, err := kernel.New(opts)
	if err != nil {
		return nil, err
	}
	return k.Derivative(state, mu)
}

// relDiff is the max-norm of want-got scaled by the max-norm of want, over
// the slots where both are finite. A slot that is non-finite on one side
// only, or holds different non-finite values, makes the result +Inf.
func relDiff(want, got []float64) float64 {
	if len(want) == 0 {
		return 0
	}

	fw := make([]float64, 0, len(want))
	fg := make([]float64, 0, len(got))
	for i, w := range want {
		g := got[i]
		wFinite, gFinite := isFinite(w), isFinite(g)
		switch {
		case wFinite && gFinite:
			fw = append(fw, w)
			fg = append(fg, g)
		case wFinite != gFinite:
			return math.Inf(1)
		case w != g && !(math.IsNaN(w) && math.IsNaN(g)):
			return math.Inf(1)
		}
	}
	if len(fw) == 0 {
		return 0
	}

	dist := floats.Distance(fw, fg, math.Inf(1))
	if scale := floats.Norm(fw, math.Inf(1)); scale > 0 {
		return dist / scale
	}
	return dist
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
