package kernel

import (
	"fmt"
	"testing"
)

func benchmarkStrategy(b *testing.B, s Strategy, threshold int) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("Bodies-%d", n), func(b *testing.B) {
			opts := DefaultOptions()
			opts.Strategy = s
			opts.ParallelThreshold = threshold
			k := mustKernel(b, opts)

			state, mu := randomSystem(42, n)
			out := make([]float64, len(state))

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := k.DerivativeInto(state, mu, out); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSymmetric(b *testing.B)         { benchmarkStrategy(b, Symmetric, 0) }
func BenchmarkNaive(b *testing.B)             { benchmarkStrategy(b, Naive, 0) }
func BenchmarkSoA(b *testing.B)               { benchmarkStrategy(b, SoA, 0) }
func BenchmarkSymmetricParallel(b *testing.B) { benchmarkStrategy(b, Symmetric, DefaultParallelThreshold) }
func BenchmarkNaiveParallel(b *testing.B)     { benchmarkStrategy(b, Naive, DefaultParallelThreshold) }
func BenchmarkSoAParallel(b *testing.B)       { benchmarkStrategy(b, SoA, DefaultParallelThreshold) }

func BenchmarkDerivativeAlloc(b *testing.B) {
	state, mu := randomSystem(42, 100)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Derivative(state, mu); err != nil {
			b.Fatal(err)
		}
	}
}
