package kernel

import "math"

func (k *Kernel) evaluateSoA(pos, mu, acc []float64, par bool) {
	n := len(mu)

	buf := scratch.Get(3 * n)
	defer scratch.Put(buf)

	x, y, z := (*buf)[:n], (*buf)[n:2*n], (*buf)[2*n:]
	for i := 0; i < n; i++ {
		x[i] = pos[3*i]
		y[i] = pos[3*i+1]
		z[i] = pos[3*i+2]
	}

	if par {
		parallelFor(n, k.workers, func(lo, hi int) {
			soaRows(x, y, z, mu, acc, k.eps2, lo, hi)
		})
		return
	}
	soaSymmetric(x, y, z, mu, acc, k.eps2)
}

func soaSymmetric(x, y, z, mu, acc []float64, eps2 float64) {
	n := len(mu)

	for i := 0; i < n; i++ {
		xi, yi, zi := x[i], y[i], z[i]
		mi := mu[i]
		var axi, ayi, azi float64

		xs, ys, zs, ms := x[i+1:n], y[i+1:n], z[i+1:n], mu[i+1:n]
		for jj := range xs {
			dx := xi - xs[jj]
			dy := yi - ys[jj]
			dz := zi - zs[jj]

			r2 := dx*dx + dy*dy + dz*dz + eps2
			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			fj := ms[jj] * r3Inv
			axi -= fj * dx
			ayi -= fj * dy
			azi -= fj * dz

			j := i + 1 + jj
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

func soaRows(x, y, z, mu, acc []float64, eps2 float64, lo, hi int) {
	n := len(mu)

	for i := lo; i < hi; i++ {
		xi, yi, zi := x[i], y[i], z[i]
		var axi, ayi, azi float64

		for j := 0; j < n; j++ {
			if i == j {
				continue
			}

			dx := xi - x[j]
			dy := yi - y[j]
			dz := zi - z[j]

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
