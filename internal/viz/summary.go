package viz

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/pointmass/internal/diagnostics"
)

func vec(v r3.Vec) string {
	return fmt.Sprintf("(% .6e, % .6e, % .6e)", v.X, v.Y, v.Z)
}

func metric(label, value string) string {
	return MetricLabel.Render(fmt.Sprintf("%-18s", label)) + MetricValue.Render(value)
}

// Invariants renders the conserved quantities of a state together with the
// momentum residual of its derivative.
func Invariants(inv diagnostics.Invariants, residual r3.Vec) string {
	lines := []string{
		Title.Render("invariants"),
		metric("energy", fmt.Sprintf("% .9e", inv.Energy)),
		metric("momentum", vec(inv.Momentum)),
		metric("angular momentum", vec(inv.AngularMomentum)),
		metric("barycenter", vec(inv.Barycenter)),
		metric("Σ mu·a", vec(residual)),
	}
	return Panel.Render(strings.Join(lines, "\n"))
}
