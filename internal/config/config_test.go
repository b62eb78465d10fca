package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/san-kum/pointmass/internal/system"
	"github.com/san-kum/pointmass/kernel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Kernel.Strategy != "symmetric" {
		t.Errorf("expected strategy symmetric, got %s", cfg.Kernel.Strategy)
	}
	if cfg.Bench.Iterations <= 0 {
		t.Error("iterations should be positive")
	}

	opts, err := cfg.KernelOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts != kernel.DefaultOptions() {
		t.Errorf("KernelOptions() = %+v, want %+v", opts, kernel.DefaultOptions())
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointmass.yaml")

	cfg := DefaultConfig()
	cfg.Kernel.Strategy = "soa"
	cfg.Kernel.Softening = 0.01
	cfg.Bench.Sizes = []int{4, 8}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Kernel.Strategy != "soa" || loaded.Kernel.Softening != 0.01 {
		t.Errorf("kernel section not preserved: %+v", loaded.Kernel)
	}
	if len(loaded.Bench.Sizes) != 2 || loaded.Bench.Sizes[1] != 8 {
		t.Errorf("bench sizes not preserved: %v", loaded.Bench.Sizes)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("kernel:\n  strategy: naive\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kernel.Strategy != "naive" {
		t.Errorf("expected naive, got %s", cfg.Kernel.Strategy)
	}
	if cfg.DataDir != DefaultDataDir || cfg.Bench.Iterations != DefaultIterations {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("kernel: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrConfigParse) {
		t.Errorf("expected ErrConfigParse, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"bad strategy", func(c *Config) { c.Kernel.Strategy = "tree" }, kernel.ErrInvalidOptions},
		{"negative workers", func(c *Config) { c.Kernel.Workers = -2 }, kernel.ErrInvalidOptions},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, ErrInvalidLogLevel},
		{"no iterations", func(c *Config) { c.Bench.Iterations = 0 }, ErrInvalidBench},
		{"zero size", func(c *Config) { c.Bench.Sizes = []int{10, 0} }, ErrInvalidBench},
		{"no sizes", func(c *Config) { c.Bench.Sizes = nil }, ErrInvalidBench},
		{"bad bench strategy", func(c *Config) { c.Bench.Strategies = []string{"gpu"} }, ErrInvalidBench},
		{"no system", func(c *Config) { c.System.Preset = "" }, ErrNoSystem},
		{"no data dir", func(c *Config) { c.DataDir = "" }, ErrInvalidDataDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("POINTMASS_STRATEGY", "naive")
	t.Setenv("POINTMASS_WORKERS", "3")
	t.Setenv("POINTMASS_PARALLEL_THRESHOLD", "16")
	t.Setenv("POINTMASS_SOFTENING", "0.5")
	t.Setenv("POINTMASS_DATA_DIR", "/tmp/pm")
	t.Setenv("POINTMASS_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}

	if cfg.Kernel.Strategy != "naive" || cfg.Kernel.Workers != 3 ||
		cfg.Kernel.ParallelThreshold != 16 || cfg.Kernel.Softening != 0.5 {
		t.Errorf("kernel env overrides not applied: %+v", cfg.Kernel)
	}
	if cfg.DataDir != "/tmp/pm" || cfg.LogLevel != "debug" {
		t.Errorf("env overrides not applied: %s %s", cfg.DataDir, cfg.LogLevel)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("POINTMASS_WORKERS", "many")
	if err := DefaultConfig().ApplyEnv(); !errors.Is(err, ErrEnvironment) {
		t.Errorf("expected ErrEnvironment, got %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoadSystem(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.LoadSystem()
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "binary" {
		t.Errorf("expected binary preset, got %s", s.Name)
	}

	cfg.System.Preset = "random"
	cfg.System.Bodies = 7
	cfg.System.Seed = 99
	s, err = cfg.LoadSystem()
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 7 {
		t.Errorf("expected 7 bodies, got %d", s.Len())
	}

	path := filepath.Join(t.TempDir(), "sys.yaml")
	if err := system.Save(path, system.Random(4, 1)); err != nil {
		t.Fatal(err)
	}
	cfg.System.File = path
	s, err = cfg.LoadSystem()
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 4 {
		t.Errorf("file should win over preset, got %d bodies", s.Len())
	}
}

func TestWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(10 * time.Millisecond)

	changed := make(chan string, 4)
	w.OnChange(func(p string) { changed <- p })

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	other := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(other, []byte("b: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("a: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		if filepath.Base(p) != "watched.yaml" {
			t.Errorf("callback got %s", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatcher_CallbacksDoNotOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(20 * time.Millisecond)

	var active atomic.Int32
	var overlapped atomic.Bool
	started := make(chan struct{}, 8)
	done := make(chan struct{}, 8)
	w.OnChange(func(string) {
		if active.Add(1) > 1 {
			overlapped.Store(true)
		}
		started <- struct{}{}
		time.Sleep(150 * time.Millisecond)
		active.Add(-1)
		done <- struct{}{}
	})

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("a: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	// written while the first callback is still running
	if err := os.WriteFile(path, []byte("a: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("callback %d did not finish", i+1)
		}
	}
	if overlapped.Load() {
		t.Error("change callbacks ran concurrently")
	}
}
