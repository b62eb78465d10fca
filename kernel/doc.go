// Package kernel evaluates the right-hand side of the gravitational N-body
// problem for point masses.
//
// The state vector is packed body-major: positions (x, y, z) for every body,
// then velocities (vx, vy, vz) in the same order. The derivative has the same
// layout, velocities first and accelerations second:
//
//	state = [r0 r1 ... rn-1 | v0 v1 ... vn-1]   (6n values)
//	deriv = [v0 v1 ... vn-1 | a0 a1 ... an-1]   (6n values)
//
// Each body is described by its gravitational parameter mu = G*m.
//
// # Strategies
//
// A [Kernel] is configured with one of three strategies that produce the same
// result up to floating point rounding:
//
//   - [Symmetric]: each unordered pair once, Newton's third law for the other half
//   - [Naive]: every ordered pair, one writer per body
//   - [SoA]: symmetric loop over per-axis position arrays
//
// Above [Options.ParallelThreshold] bodies the outer loop is split across
// [Options.Workers] goroutines and joined before the call returns.
//
// # Example
//
//	k, _ := kernel.New(kernel.DefaultOptions())
//	out := make([]float64, len(state))
//	for step := 0; step < steps; step++ {
//	    if err := k.DerivativeInto(state, mu, out); err != nil {
//	        return err
//	    }
//	    // advance state with out
//	}
//
// # Degenerate input
//
// Only shape mismatches are reported as errors ([ErrShapeMismatch]). Without
// softening, two bodies at the same position produce +Inf or NaN
// accelerations; mu values are not checked.
package kernel
