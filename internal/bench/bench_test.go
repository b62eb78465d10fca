package bench

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pointmass/kernel"
)

func testRunner() *Runner {
	return &Runner{
		Sizes:             []int{2, 16},
		Strategies:        kernel.Strategies(),
		Iterations:        3,
		Workers:           2,
		ParallelThreshold: 8,
		Seed:              7,
	}
}

func TestRun(t *testing.T) {
	r := testRunner()
	progress := make(chan Progress, 16)

	report, err := r.Run(context.Background(), progress)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := len(r.Sizes) * len(r.Strategies)
	if len(report.Results) != want {
		t.Fatalf("expected %d results, got %d", want, len(report.Results))
	}

	updates := 0
	for p := range progress {
		updates++
		if p.Total != want || p.Done != updates {
			t.Errorf("unexpected progress %+v", p)
		}
	}
	if updates != want {
		t.Errorf("expected %d progress updates, got %d", want, updates)
	}

	for _, res := range report.Results {
		if res.Iterations != 3 {
			t.Errorf("%s/%d: iterations = %d", res.Strategy, res.Bodies, res.Iterations)
		}
		if res.MeanNs < 0 || res.StdDevNs < 0 || math.IsNaN(res.StdDevNs) {
			t.Errorf("%s/%d: bad statistics %+v", res.Strategy, res.Bodies, res)
		}
	}

	if got := report.Strategies(); len(got) != 3 || got[0] != "symmetric" {
		t.Errorf("Strategies() = %v", got)
	}
	bodies, mean := report.Series("soa")
	if len(bodies) != 2 || bodies[1] != 16 || len(mean) != 2 {
		t.Errorf("Series(soa) = %v %v", bodies, mean)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := testRunner().Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("expected no results, got %d", len(report.Results))
	}
}

func TestRun_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Runner)
	}{
		{"no iterations", func(r *Runner) { r.Iterations = 0 }},
		{"no sizes", func(r *Runner) { r.Sizes = nil }},
		{"zero size", func(r *Runner) { r.Sizes = []int{0} }},
		{"no strategies", func(r *Runner) { r.Strategies = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRunner()
			tt.mutate(r)
			progress := make(chan Progress)
			if _, err := r.Run(context.Background(), progress); !errors.Is(err, ErrInvalidRunner) {
				t.Errorf("expected ErrInvalidRunner, got %v", err)
			}
			if _, ok := <-progress; ok {
				t.Error("progress should be closed")
			}
		})
	}
}

func TestCheck(t *testing.T) {
	sizes := []int{2, 3, 10, 100}
	agreements, err := Check(context.Background(), sizes, 1, kernel.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if want := len(sizes) * 6; len(agreements) != want {
		t.Fatalf("expected %d agreements, got %d", want, len(agreements))
	}
	for _, a := range agreements {
		if !a.OK(0) {
			t.Errorf("%d bodies %s parallel=%v: rel diff %g", a.Bodies, a.Strategy, a.Parallel, a.MaxRelDiff)
		}
	}
	if agreements[0].Bodies != 2 || agreements[len(agreements)-1].Bodies != 100 {
		t.Error("agreements not in size order")
	}
}

func TestCheck_InvalidSize(t *testing.T) {
	if _, err := Check(context.Background(), []int{4, -1}, 1, kernel.DefaultOptions()); !errors.Is(err, ErrInvalidRunner) {
		t.Errorf("expected ErrInvalidRunner, got %v", err)
	}
}

func TestAgreementOK(t *testing.T) {
	tests := []struct {
		diff, tol float64
		want      bool
	}{
		{0, 0, true},
		{1e-11, 0, true},
		{1e-9, 0, false},
		{1e-9, 1e-8, true},
		{math.NaN(), 1, false},
		{math.Inf(1), 1, false},
	}
	for _, tt := range tests {
		if got := (Agreement{MaxRelDiff: tt.diff}).OK(tt.tol); got != tt.want {
			t.Errorf("OK(%g) with diff %g = %v, want %v", tt.tol, tt.diff, got, tt.want)
		}
	}
}

func TestRelDiff(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)

	tests := []struct {
		name      string
		want, got []float64
		expected  float64
	}{
		{"identical", []float64{2, -4}, []float64{2, -4}, 0},
		{"relative", []float64{2, -4}, []float64{2, -3}, 0.25},
		{"zero baseline is absolute", []float64{0, 0}, []float64{0, 0.5}, 0.5},
		{"nan after first slot", []float64{1, 2, 3}, []float64{1, nan, 3}, inf},
		{"nan in first slot", []float64{1, 2, 3}, []float64{nan, 2, 3}, inf},
		{"inf where finite expected", []float64{1, 2, 3}, []float64{1, 2, -inf}, inf},
		{"finite where nan expected", []float64{1, nan, 3}, []float64{1, 2, 3}, inf},
		{"opposite infinities", []float64{inf, 1}, []float64{-inf, 1}, inf},
		{"matching non-finite slots", []float64{nan, inf, 4}, []float64{nan, inf, 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := relDiff(tt.want, tt.got)
			if d != tt.expected {
				t.Fatalf("relDiff = %g, want %g", d, tt.expected)
			}
			if ok := (Agreement{MaxRelDiff: d}).OK(0); ok != (tt.expected <= DefaultTolerance) {
				t.Errorf("OK = %v for diff %g", ok, d)
			}
		})
	}
}
