package testsupport

import (
	"path/filepath"
	"testing"

	"redline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.API.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLimits overrides the plan limits on the test config.
func WithLimits(maxWorkflows, maxStagesPerWorkflow int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Limits.MaxWorkflows = maxWorkflows
		cfg.Limits.MaxStagesPerWorkflow = maxStagesPerWorkflow
	}
}

// WithBulkPageSize overrides the migration page size, letting tests force
// multiple pages with a handful of records.
func WithBulkPageSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.BulkPageSize = size
	}
}
