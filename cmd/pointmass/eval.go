package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/pointmass/internal/config"
	"github.com/san-kum/pointmass/internal/diagnostics"
	"github.com/san-kum/pointmass/internal/storage"
	"github.com/san-kum/pointmass/internal/system"
	"github.com/san-kum/pointmass/internal/viz"
	"github.com/san-kum/pointmass/kernel"
)

var errNonFinite = errors.New("derivative is not finite (coincident bodies?); JSON cannot encode it, try --softening")

type evalOutput struct {
	System     string                 `json:"system"`
	Kernel     string                 `json:"kernel"`
	Derivative []float64              `json:"derivative"`
	Invariants diagnostics.Invariants `json:"invariants"`
	Residual   r3.Vec                 `json:"momentum_residual"`
}

type evaluation struct {
	sys      *system.System
	kernel   *kernel.Kernel
	state    []float64
	deriv    []float64
	inv      diagnostics.Invariants
	residual r3.Vec
}

func evaluateSystem(c *config.Config) (*evaluation, error) {
	sys, err := c.LoadSystem()
	if err != nil {
		return nil, err
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	opts, err := c.KernelOptions()
	if err != nil {
		return nil, err
	}
	k, err := kernel.New(opts)
	if err != nil {
		return nil, err
	}

	state, mu := sys.Pack()
	deriv, err := k.Derivative(state, mu)
	if err != nil {
		return nil, err
	}
	inv, err := diagnostics.Evaluate(state, mu)
	if err != nil {
		return nil, err
	}
	residual, err := diagnostics.MomentumResidual(deriv, mu)
	if err != nil {
		return nil, err
	}

	return &evaluation{sys: sys, kernel: k, state: state, deriv: deriv, inv: inv, residual: residual}, nil
}

func evaluate(out io.Writer, c *config.Config) error {
	ev, err := evaluateSystem(c)
	if err != nil {
		return err
	}

	if jsonOut {
		for _, v := range ev.deriv {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errNonFinite
			}
		}
		return storage.ExportJSON(out, evalOutput{
			System:     ev.sys.Name,
			Kernel:     ev.kernel.String(),
			Derivative: ev.deriv,
			Invariants: ev.inv,
			Residual:   ev.residual,
		})
	}

	fmt.Fprintf(out, "system: %s (%d bodies)\n", ev.sys.Name, ev.sys.Len())
	fmt.Fprintf(out, "kernel: %s\n\n", ev.kernel)

	n := ev.sys.Len()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMU\tAX\tAY\tAZ\t|A|")
	for i, b := range ev.sys.Bodies {
		a := diagnostics.Acceleration(ev.deriv, n, i)
		fmt.Fprintf(w, "%s\t%.6g\t% .6e\t% .6e\t% .6e\t%.6e\n",
			b.Name, b.Mu, a.X, a.Y, a.Z, r3.Norm(a))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.Invariants(ev.inv, ev.residual))

	if showMap {
		fmt.Fprintln(out)
		fmt.Fprint(out, viz.FieldMap(ev.state, ev.deriv, 40, 12))
	}
	return nil
}
