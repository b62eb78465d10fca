package system

import (
	"fmt"
	"math"
	"sort"
)

const (
	muSun   = 1.32712440018e20
	muEarth = 3.986004418e14
	muMoon  = 4.9048695e12

	astronomicalUnit = 1.495978707e11
	earthMoonDist    = 3.844e8
	earthOrbitSpeed  = 29780.0
	moonOrbitSpeed   = 1022.0
)

var presets = map[string]func(n int) *System{
	"binary": func(int) *System {
		return &System{
			Name: "binary",
			Bodies: []Body{
				{Name: "a", Mu: 1, Position: [3]float64{0, 0, 0}},
				{Name: "b", Mu: 1, Position: [3]float64{1, 0, 0}},
			},
		}
	},
	// Chenciner-Montgomery figure-eight choreography, G = m = 1.
	"figure_eight": func(int) *System {
		return &System{
			Name: "figure_eight",
			Bodies: []Body{
				{Name: "a", Mu: 1, Position: [3]float64{-0.97000436, 0.24308753, 0}, Velocity: [3]float64{0.466203685, 0.43236573, 0}},
				{Name: "b", Mu: 1, Position: [3]float64{0.97000436, -0.24308753, 0}, Velocity: [3]float64{0.466203685, 0.43236573, 0}},
				{Name: "c", Mu: 1, Position: [3]float64{0, 0, 0}, Velocity: [3]float64{-0.93240737, -0.86473146, 0}},
			},
		}
	},
	"sun_earth_moon": func(int) *System {
		return &System{
			Name:  "sun_earth_moon",
			Units: "m, m/s, m^3/s^2",
			Bodies: []Body{
				{Name: "sun", Mu: muSun},
				{Name: "earth", Mu: muEarth, Position: [3]float64{astronomicalUnit, 0, 0}, Velocity: [3]float64{0, earthOrbitSpeed, 0}},
				{Name: "moon", Mu: muMoon, Position: [3]float64{astronomicalUnit + earthMoonDist, 0, 0}, Velocity: [3]float64{0, earthOrbitSpeed + moonOrbitSpeed, 0}},
			},
		}
	},
	"ring": ring,
	"random": func(n int) *System {
		return Random(n, 1)
	},
}

// DefaultBodies is the body count used by sized presets when none is given.
const DefaultBodies = 8

// ring places n unit-mass bodies on the unit circle moving tangentially.
func ring(n int) *System {
	s := &System{
		Name:   fmt.Sprintf("ring-%d", n),
		Bodies: make([]Body, n),
	}
	for i := range s.Bodies {
		angle := float64(i) * 2 * math.Pi / float64(n)
		s.Bodies[i] = Body{
			Name:     fmt.Sprintf("body%d", i),
			Mu:       1,
			Position: [3]float64{math.Cos(angle), math.Sin(angle), 0},
			Velocity: [3]float64{-math.Sin(angle) * 0.5, math.Cos(angle) * 0.5, 0},
		}
	}
	return s
}

// Preset builds a named system. n is only used by sized presets (ring,
// random); n <= 0 selects DefaultBodies.
func Preset(name string, n int) (*System, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, name, ListPresets())
	}
	if n <= 0 {
		n = DefaultBodies
	}
	return fn(n), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
