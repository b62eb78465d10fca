package config

import (
	"fmt"
	"os"
	"strconv"
)

const EnvPrefix = "POINTMASS"

// ApplyEnv overrides fields from POINTMASS_* environment variables.
func (c *Config) ApplyEnv() error {
	if val := os.Getenv(EnvPrefix + "_STRATEGY"); val != "" {
		c.Kernel.Strategy = val
	}
	if val := os.Getenv(EnvPrefix + "_WORKERS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %s_WORKERS=%q", ErrEnvironment, EnvPrefix, val)
		}
		c.Kernel.Workers = n
	}
	if val := os.Getenv(EnvPrefix + "_PARALLEL_THRESHOLD"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %s_PARALLEL_THRESHOLD=%q", ErrEnvironment, EnvPrefix, val)
		}
		c.Kernel.ParallelThreshold = n
	}
	if val := os.Getenv(EnvPrefix + "_SOFTENING"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("%w: %s_SOFTENING=%q", ErrEnvironment, EnvPrefix, val)
		}
		c.Kernel.Softening = f
	}
	if val := os.Getenv(EnvPrefix + "_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv(EnvPrefix + "_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	return nil
}
