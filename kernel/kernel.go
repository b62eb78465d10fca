package kernel

import "fmt"

// Kernel evaluates the N-body derivative with a fixed set of options. It
// holds no per-call state and is safe for concurrent use as long as each
// caller supplies its own output buffer.
type Kernel struct {
	opts    Options
	workers int
	eps2    float64
}

// New validates opts and returns a Kernel configured with them.
func New(opts Options) (*Kernel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newKernel(opts), nil
}

func newKernel(opts Options) *Kernel {
	return &Kernel{
		opts:    opts,
		workers: opts.workers(),
		eps2:    opts.Softening * opts.Softening,
	}
}

var defaultKernel = newKernel(DefaultOptions())

// Derivative evaluates state with the default options.
func Derivative(state, mu []float64) ([]float64, error) {
	return defaultKernel.Derivative(state, mu)
}

// DerivativeInto evaluates state with the default options, writing into out.
func DerivativeInto(state, mu, out []float64) error {
	return defaultKernel.DerivativeInto(state, mu, out)
}

// Options returns the options the kernel was built with.
func (k *Kernel) Options() Options { return k.opts }

func (k *Kernel) String() string {
	return fmt.Sprintf("%s(threshold=%d, workers=%d, softening=%g)",
		k.opts.Strategy, k.opts.ParallelThreshold, k.workers, k.opts.Softening)
}

// Derivative returns a freshly allocated derivative of state.
func (k *Kernel) Derivative(state, mu []float64) ([]float64, error) {
	if err := checkShape(state, mu, nil, false); err != nil {
		return nil, err
	}
	out := make([]float64, len(state))
	k.evaluate(state, mu, out)
	return out, nil
}

// DerivativeInto writes the derivative of state into out, which must have
// the same length as state and must not alias it. On a shape mismatch out is
// left untouched.
func (k *Kernel) DerivativeInto(state, mu, out []float64) error {
	if err := checkShape(state, mu, out, true); err != nil {
		return err
	}
	k.evaluate(state, mu, out)
	return nil
}

// Func is a right-hand side in the (t, y, dy) form used by ODE drivers.
type Func func(t float64, y, dy []float64) error

// RHS binds a copy of mu to the kernel. The returned function ignores t.
func (k *Kernel) RHS(mu []float64) Func {
	bound := make([]float64, len(mu))
	copy(bound, mu)
	return func(_ float64, y, dy []float64) error {
		return k.DerivativeInto(y, bound, dy)
	}
}

func (k *Kernel) parallel(n int) bool {
	return k.opts.ParallelThreshold > 0 && n > k.opts.ParallelThreshold && k.workers > 1
}

func (k *Kernel) evaluate(state, mu, out []float64) {
	n := len(mu)
	copy(out[:3*n], state[3*n:])

	acc := out[3*n:]
	clear(acc)
	if n < 2 {
		return
	}

	pos := state[:3*n]
	par := k.parallel(n)

	switch k.opts.Strategy {
	case Naive:
		if par {
			parallelFor(n, k.workers, func(lo, hi int) {
				naiveRows(pos, mu, acc, k.eps2, lo, hi)
			})
			return
		}
		naiveRows(pos, mu, acc, k.eps2, 0, n)

	case SoA:
		k.evaluateSoA(pos, mu, acc, par)

	default:
		if par {
			k.symmetricParallel(pos, mu, acc)
			return
		}
		symmetricRows(pos, mu, acc, k.eps2, 0, 1)
	}
}
