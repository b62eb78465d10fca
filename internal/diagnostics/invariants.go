package diagnostics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/pointmass/kernel"
)

type Invariants struct {
	Energy          float64
	Momentum        r3.Vec
	AngularMomentum r3.Vec
	Barycenter      r3.Vec
}

func position(state []float64, i int) r3.Vec {
	return r3.Vec{X: state[3*i], Y: state[3*i+1], Z: state[3*i+2]}
}

func velocity(state []float64, n, i int) r3.Vec {
	return position(state[3*n:], i)
}

func checkShape(state, mu []float64) error {
	if len(state) != 6*len(mu) {
		return fmt.Errorf("%w: len(state)=%d, len(mu)=%d", kernel.ErrShapeMismatch, len(state), len(mu))
	}
	return nil
}

// Evaluate computes every invariant of state.
func Evaluate(state, mu []float64) (Invariants, error) {
	if err := checkShape(state, mu); err != nil {
		return Invariants{}, err
	}
	return Invariants{
		Energy:          Energy(state, mu),
		Momentum:        Momentum(state, mu),
		AngularMomentum: AngularMomentum(state, mu),
		Barycenter:      Barycenter(state, mu),
	}, nil
}

// Energy returns sum(mu_i |v_i|^2 / 2) - sum_{i<j}(mu_i mu_j / r_ij).
// Coincident pairs contribute nothing to the potential term.
func Energy(state, mu []float64) float64 {
	n := len(mu)
	ke := 0.0
	pe := 0.0

	for i := 0; i < n; i++ {
		ke += 0.5 * mu[i] * r3.Norm2(velocity(state, n, i))

		ri := position(state, i)
		for j := i + 1; j < n; j++ {
			r := r3.Norm(r3.Sub(ri, position(state, j)))
			term := mu[i] * mu[j] / r
			if math.IsInf(term, 0) || math.IsNaN(term) {
				continue
			}
			pe -= term
		}
	}

	return ke + pe
}

func Momentum(state, mu []float64) r3.Vec {
	n := len(mu)
	var p r3.Vec
	for i := 0; i < n; i++ {
		p = r3.Add(p, r3.Scale(mu[i], velocity(state, n, i)))
	}
	return p
}

func AngularMomentum(state, mu []float64) r3.Vec {
	n := len(mu)
	var h r3.Vec
	for i := 0; i < n; i++ {
		h = r3.Add(h, r3.Scale(mu[i], r3.Cross(position(state, i), velocity(state, n, i))))
	}
	return h
}

// Barycenter returns the mu-weighted mean position, or the origin when the
// total mu is zero.
func Barycenter(state, mu []float64) r3.Vec {
	var c r3.Vec
	total := 0.0
	for i := range mu {
		c = r3.Add(c, r3.Scale(mu[i], position(state, i)))
		total += mu[i]
	}
	if total == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/total, c)
}

// MomentumResidual returns sum(mu_i * a_i) for a derivative vector.
func MomentumResidual(deriv, mu []float64) (r3.Vec, error) {
	if err := checkShape(deriv, mu); err != nil {
		return r3.Vec{}, err
	}

	n := len(mu)
	var s r3.Vec
	for i := 0; i < n; i++ {
		s = r3.Add(s, r3.Scale(mu[i], velocity(deriv, n, i)))
	}
	return s, nil
}

// Acceleration returns body i's acceleration from a derivative vector.
func Acceleration(deriv []float64, n, i int) r3.Vec {
	return velocity(deriv, n, i)
}
