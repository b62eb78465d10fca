package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pointmass/internal/system"
	"github.com/san-kum/pointmass/kernel"
)

const (
	DefaultDataDir    = ".pointmass"
	DefaultLogLevel   = "info"
	DefaultIterations = 200
	DefaultSeed       = 1
)

var DefaultSizes = []int{2, 3, 10, 100, 500}

type Config struct {
	Kernel   KernelConfig `yaml:"kernel"`
	System   SystemConfig `yaml:"system"`
	Bench    BenchConfig  `yaml:"bench"`
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`
}

type KernelConfig struct {
	Strategy          string  `yaml:"strategy"`
	ParallelThreshold int     `yaml:"parallel_threshold"`
	Workers           int     `yaml:"workers"`
	Softening         float64 `yaml:"softening"`
}

type SystemConfig struct {
	Preset string `yaml:"preset"`
	Bodies int    `yaml:"bodies"`
	File   string `yaml:"file"`
	Seed   int64  `yaml:"seed"`
}

type BenchConfig struct {
	Sizes      []int    `yaml:"sizes,flow"`
	Iterations int      `yaml:"iterations"`
	Strategies []string `yaml:"strategies,flow"`
	Seed       int64    `yaml:"seed"`
}

func DefaultConfig() *Config {
	strategies := make([]string, 0, 3)
	for _, s := range kernel.Strategies() {
		strategies = append(strategies, s.String())
	}

	return &Config{
		Kernel: KernelConfig{
			Strategy:          kernel.Symmetric.String(),
			ParallelThreshold: kernel.DefaultParallelThreshold,
		},
		System: SystemConfig{
			Preset: "binary",
			Seed:   DefaultSeed,
		},
		Bench: BenchConfig{
			Sizes:      append([]int(nil), DefaultSizes...),
			Iterations: DefaultIterations,
			Strategies: strategies,
			Seed:       DefaultSeed,
		},
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults. Environment overrides are applied
// separately with ApplyEnv.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := c.KernelOptions(); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidDataDir)
	}

	if c.Bench.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidBench, c.Bench.Iterations)
	}
	if len(c.Bench.Sizes) == 0 {
		return fmt.Errorf("%w: no sizes", ErrInvalidBench)
	}
	for _, n := range c.Bench.Sizes {
		if n <= 0 {
			return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidBench, n)
		}
	}
	if _, err := c.BenchStrategies(); err != nil {
		return err
	}

	if c.System.File == "" && c.System.Preset == "" {
		return ErrNoSystem
	}
	return nil
}

// KernelOptions converts the kernel section into validated kernel options.
func (c *Config) KernelOptions() (kernel.Options, error) {
	s, err := kernel.ParseStrategy(c.Kernel.Strategy)
	if err != nil {
		return kernel.Options{}, err
	}
	opts := kernel.Options{
		Strategy:          s,
		ParallelThreshold: c.Kernel.ParallelThreshold,
		Workers:           c.Kernel.Workers,
		Softening:         c.Kernel.Softening,
	}
	if err := opts.Validate(); err != nil {
		return kernel.Options{}, err
	}
	return opts, nil
}

func (c *Config) BenchStrategies() ([]kernel.Strategy, error) {
	out := make([]kernel.Strategy, 0, len(c.Bench.Strategies))
	for _, name := range c.Bench.Strategies {
		s, err := kernel.ParseStrategy(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBench, err)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no strategies", ErrInvalidBench)
	}
	return out, nil
}

// LoadSystem resolves the system section: a file wins over a preset.
func (c *Config) LoadSystem() (*system.System, error) {
	if c.System.File != "" {
		return system.Load(c.System.File)
	}
	if c.System.Preset == "" {
		return nil, ErrNoSystem
	}
	if c.System.Preset == "random" {
		n := c.System.Bodies
		if n <= 0 {
			n = system.DefaultBodies
		}
		return system.Random(n, c.System.Seed), nil
	}
	return system.Preset(c.System.Preset, c.System.Bodies)
}

func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
}
