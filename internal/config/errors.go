package config

import "errors"

// Validation errors
var (
	ErrInvalidLogLevel = errors.New("config: invalid log level")
	ErrInvalidBench    = errors.New("config: invalid bench section")
	ErrInvalidDataDir  = errors.New("config: invalid data directory")
	ErrNoSystem        = errors.New("config: no system file or preset")
)

// Loading errors
var (
	ErrConfigParse = errors.New("config: parse error")
	ErrEnvironment = errors.New("config: invalid environment variable")
	ErrWatch       = errors.New("config: watch error")
)
