// Package diagnostics computes conserved quantities of a packed N-body state.
//
// The kernel only sees mu = G*m, so every quantity here is scaled by G:
//
//   - [Energy]: G * (kinetic + potential)
//   - [Momentum]: G * total linear momentum
//   - [AngularMomentum]: G * total angular momentum about the origin
//
// [MomentumResidual] checks a derivative rather than a state: by Newton's
// third law sum(mu_i * a_i) is zero up to rounding for any correct kernel.
package diagnostics
