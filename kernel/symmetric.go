package kernel

import "math"

// symmetricRows visits rows start, start+stride, ... and for each row i every
// pair (i, j) with j > i, adding the contribution to both bodies.
func symmetricRows(pos, mu, acc []float64, eps2 float64, start, stride int) {
	n := len(mu)

	for i := start; i < n; i += stride {
		xi, yi, zi := pos[3*i], pos[3*i+1], pos[3*i+2]
		mi := mu[i]
		var axi, ayi, azi float64

		for j := i + 1; j < n; j++ {
			dx := xi - pos[3*j]
			dy := yi - pos[3*j+1]
			dz := zi - pos[3*j+2]

			r2 := dx*dx + dy*dy + dz*dz + eps2
			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			fj := mu[j] * r3Inv
			axi -= fj * dx
			ayi -= fj * dy
			azi -= fj * dz

			fi := mi * r3Inv
			acc[3*j] += fi * dx
			acc[3*j+1] += fi * dy
			acc[3*j+2] += fi * dz
		}

		acc[3*i] += axi
		acc[3*i+1] += ayi
		acc[3*i+2] += azi
	}
}

// naiveRows computes rows [lo, hi) against every other body. Each row is
// written by exactly one call.
func naiveRows(pos, mu, acc []float64, eps2 float64, lo, hi int) {
	n := len(mu)

	for i := lo; i < hi; i++ {
		xi, yi, zi := pos[3*i], pos[3*i+1], pos[3*i+2]
		var axi, ayi, azi float64

		for j := 0; j < n; j++ {
			if i == j {
				continue
			}

			dx := xi - pos[3*j]
			dy := yi - pos[3*j+1]
			dz := zi - pos[3*j+2]

			r2 := dx*dx + dy*dy + dz*dz + eps2
			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			fj := mu[j] * r3Inv
			axi -= fj * dx
			ayi -= fj * dy
			azi -= fj * dz
		}

		acc[3*i] = axi
		acc[3*i+1] = ayi
		acc[3*i+2] = azi
	}
}
