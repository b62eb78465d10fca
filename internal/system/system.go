// Package system describes collections of point masses and packs them into
// the state and mu arrays the kernel consumes.
package system

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pointmass/kernel"
)

var (
	ErrInvalidBody   = errors.New("system: invalid body")
	ErrEmpty         = errors.New("system: no bodies")
	ErrUnknownPreset = errors.New("system: unknown preset")
)

type Body struct {
	Name     string     `yaml:"name"`
	Mu       float64    `yaml:"mu"`
	Position [3]float64 `yaml:"position,flow"`
	Velocity [3]float64 `yaml:"velocity,flow"`
}

type System struct {
	Name   string `yaml:"name"`
	Units  string `yaml:"units,omitempty"`
	Bodies []Body `yaml:"bodies"`
}

func (s *System) Len() int { return len(s.Bodies) }

// Pack returns the body-major state vector and the mu array.
func (s *System) Pack() (state, mu []float64) {
	n := len(s.Bodies)
	state = make([]float64, 6*n)
	mu = make([]float64, n)

	for i, b := range s.Bodies {
		copy(state[3*i:3*i+3], b.Position[:])
		copy(state[3*n+3*i:3*n+3*i+3], b.Velocity[:])
		mu[i] = b.Mu
	}
	return state, mu
}

// Unpack rebuilds a System from packed arrays. Bodies are named by index.
func Unpack(name string, state, mu []float64) (*System, error) {
	n := len(mu)
	if len(state) != 6*n {
		return nil, fmt.Errorf("%w: len(state)=%d, len(mu)=%d", kernel.ErrShapeMismatch, len(state), n)
	}

	s := &System{Name: name, Bodies: make([]Body, n)}
	for i := range s.Bodies {
		b := &s.Bodies[i]
		b.Name = fmt.Sprintf("body%d", i)
		b.Mu = mu[i]
		copy(b.Position[:], state[3*i:3*i+3])
		copy(b.Velocity[:], state[3*n+3*i:3*n+3*i+3])
	}
	return s, nil
}

func (s *System) Validate() error {
	if len(s.Bodies) == 0 {
		return ErrEmpty
	}

	for i, b := range s.Bodies {
		if b.Name == "" {
			return fmt.Errorf("%w: body %d has no name", ErrInvalidBody, i)
		}
		if !finite(b.Mu) || b.Mu < 0 {
			return fmt.Errorf("%w: %s: mu must be finite and >= 0, got %g", ErrInvalidBody, b.Name, b.Mu)
		}
		for c := 0; c < 3; c++ {
			if !finite(b.Position[c]) || !finite(b.Velocity[c]) {
				return fmt.Errorf("%w: %s: non-finite position or velocity", ErrInvalidBody, b.Name)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func Load(path string) (*System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s System
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

func Save(path string, s *System) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Random returns n bodies placed uniformly in [-1, 1)^3 with velocities in
// [-0.1, 0.1)^3 and mu in [0.5, 1.5). The same seed gives the same system.
func Random(n int, seed int64) *System {
	rng := rand.New(rand.NewSource(seed))

	s := &System{
		Name:   fmt.Sprintf("random-%d-%d", n, seed),
		Bodies: make([]Body, n),
	}
	for i := range s.Bodies {
		b := &s.Bodies[i]
		b.Name = fmt.Sprintf("body%d", i)
		for c := 0; c < 3; c++ {
			b.Position[c] = rng.Float64()*2 - 1
			b.Velocity[c] = (rng.Float64()*2 - 1) * 0.1
		}
		b.Mu = 0.5 + rng.Float64()
	}
	return s
}
