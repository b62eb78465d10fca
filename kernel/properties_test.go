package kernel_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pointmass/kernel"
)

func cluster(seed int64, n int) ([]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	state := make([]float64, 6*n)
	mu := make([]float64, n)
	for i := range state {
		state[i] = rng.NormFloat64()
	}
	for i := range mu {
		mu[i] = rng.ExpFloat64()
	}
	return state, mu
}

var _ = Describe("Kernel", func() {
	var k *kernel.Kernel

	Context("two bodies one unit apart", func() {
		state := []float64{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
		mu := []float64{1, 1}

		DescribeTable("matches the analytic derivative",
			func(s kernel.Strategy, threshold int) {
				opts := kernel.DefaultOptions()
				opts.Strategy = s
				opts.ParallelThreshold = threshold
				opts.Workers = 2

				var err error
				k, err = kernel.New(opts)
				Expect(err).NotTo(HaveOccurred())

				out, err := k.Derivative(state, mu)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(Equal([]float64{0, 0, 0, 0, 0, 0, 1, 0, 0, -1, 0, 0}))
			},
			Entry("symmetric", kernel.Symmetric, 0),
			Entry("naive", kernel.Naive, 0),
			Entry("soa", kernel.SoA, 0),
			Entry("symmetric parallel", kernel.Symmetric, 1),
			Entry("naive parallel", kernel.Naive, 1),
			Entry("soa parallel", kernel.SoA, 1),
		)
	})

	Context("random clusters", func() {
		BeforeEach(func() {
			var err error
			k, err = kernel.New(kernel.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
		})

		It("copies velocities verbatim", func() {
			for seed := int64(0); seed < 5; seed++ {
				state, mu := cluster(seed, 30)
				out, err := k.Derivative(state, mu)
				Expect(err).NotTo(HaveOccurred())
				Expect(out[:90]).To(Equal(state[90:]))
			}
		})

		It("points every pair force along the separation", func() {
			state, mu := cluster(99, 2)
			out, err := k.Derivative(state, mu)
			Expect(err).NotTo(HaveOccurred())

			dx := state[3] - state[0]
			dy := state[4] - state[1]
			dz := state[5] - state[2]
			r := math.Sqrt(dx*dx + dy*dy + dz*dz)

			a0 := out[6:9]
			for c, d := range []float64{dx, dy, dz} {
				want := mu[1] * d / (r * r * r)
				Expect(a0[c]).To(BeNumerically("~", want, 1e-12*math.Abs(want)+1e-15))
			}
		})

		It("is deterministic across repeated parallel calls", func() {
			opts := kernel.DefaultOptions()
			opts.ParallelThreshold = 8
			opts.Workers = 3
			pk, err := kernel.New(opts)
			Expect(err).NotTo(HaveOccurred())

			state, mu := cluster(5, 200)
			first, err := pk.Derivative(state, mu)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 3; i++ {
				again, err := pk.Derivative(state, mu)
				Expect(err).NotTo(HaveOccurred())
				Expect(again).To(Equal(first))
			}
		})

		It("rejects mismatched shapes before writing", func() {
			state, mu := cluster(1, 4)
			out := make([]float64, 24)
			out[0] = 123

			err := k.DerivativeInto(state[:23], mu, out)
			Expect(errors.Is(err, kernel.ErrShapeMismatch)).To(BeTrue())
			Expect(out[0]).To(Equal(123.0))
		})
	})
})
