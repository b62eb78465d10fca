package kernel

import "sync"

// scratchPool hands out zeroed float64 buffers for SoA axis arrays and
// per-worker partial accumulators. Buffers never hold caller data once a call
// returns.
type scratchPool struct {
	pool sync.Pool
}

var scratch = newScratchPool()

func newScratchPool() *scratchPool {
	return &scratchPool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 3*DefaultParallelThreshold)
				return &s
			},
		},
	}
}

func (p *scratchPool) Get(size int) *[]float64 {
	buf := p.pool.Get().(*[]float64)
	if cap(*buf) < size {
		*buf = make([]float64, size)
		return buf
	}
	*buf = (*buf)[:size]
	clear(*buf)
	return buf
}

func (p *scratchPool) Put(buf *[]float64) {
	p.pool.Put(buf)
}
