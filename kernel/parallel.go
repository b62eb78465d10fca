package kernel

import "sync"

// parallelFor splits [0, n) into contiguous chunks, one goroutine per chunk,
// and returns once every chunk is done.
func parallelFor(n, workers int, fn func(lo, hi int)) {
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunkSize {
		hi := min(lo+chunkSize, n)

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}

	wg.Wait()
}

// symmetricParallel deals rows out cyclically so every worker gets a similar
// share of the triangular pair space. Worker 0 accumulates straight into acc,
// the others into pooled partials that are summed in worker order afterwards.
func (k *Kernel) symmetricParallel(pos, mu, acc []float64) {
	n := len(mu)
	workers := min(k.workers, n)

	partials := make([]*[]float64, workers)
	for w := 1; w < workers; w++ {
		partials[w] = scratch.Get(len(acc))
	}

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()

			local := acc
			if worker > 0 {
				local = *partials[worker]
			}
			symmetricRows(pos, mu, local, k.eps2, worker, workers)
		}(w)
	}

	wg.Wait()

	for w := 1; w < workers; w++ {
		p := *partials[w]
		for i := range acc {
			acc[i] += p[i]
		}
		scratch.Put(partials[w])
	}
}
