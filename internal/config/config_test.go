package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redline/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Limits.MaxWorkflows != 200 || cfg.Limits.MaxStagesPerWorkflow != 200 {
		t.Fatalf("unexpected default limits: %+v", cfg.Limits)
	}
	if cfg.Engine.DefaultStageColor != config.DefaultStageColor {
		t.Fatalf("unexpected default stage color: %q", cfg.Engine.DefaultStageColor)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		`[paths]`,
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		``,
		`[limits]`,
		`max_workflows = 5`,
		`max_stages_per_workflow = 3`,
		``,
		`[engine]`,
		`bulk_page_size = 50`,
		`default_stage_color = "#AABBCC"`,
		``,
		`[[models]]`,
		`uid = "api.article"`,
		`workflow_eligible = true`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to exist, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Limits.MaxWorkflows != 5 || cfg.Limits.MaxStagesPerWorkflow != 3 {
		t.Fatalf("limits not applied: %+v", cfg.Limits)
	}
	if cfg.Engine.BulkPageSize != 50 {
		t.Fatalf("bulk page size not applied: %d", cfg.Engine.BulkPageSize)
	}
	if cfg.Engine.DefaultStageColor != "#aabbcc" {
		t.Fatalf("expected normalized lowercase color, got %q", cfg.Engine.DefaultStageColor)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].UID != "api.article" || !cfg.Models[0].WorkflowEligible {
		t.Fatalf("models not applied: %+v", cfg.Models)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing file to report exists=false")
	}
	if cfg.API.Bind == "" {
		t.Fatal("expected default bind address")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero workflows", func(c *config.Config) { c.Limits.MaxWorkflows = 0 }},
		{"zero stages", func(c *config.Config) { c.Limits.MaxStagesPerWorkflow = 0 }},
		{"zero page size", func(c *config.Config) { c.Engine.BulkPageSize = 0 }},
		{"bad color", func(c *config.Config) { c.Engine.DefaultStageColor = "blue" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"empty model uid", func(c *config.Config) { c.Models = []config.Model{{UID: ""}} }},
		{"duplicate model uid", func(c *config.Config) {
			c.Models = []config.Model{{UID: "api.article"}, {UID: "api.article"}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestDatabaseAndLockPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/redline-test"
	if got := cfg.DatabasePath(); got != filepath.Join("/tmp/redline-test", "redline.db") {
		t.Fatalf("unexpected database path: %s", got)
	}
	if got := cfg.LockFilePath(); got != filepath.Join("/tmp/redline-test", "redline.lock") {
		t.Fatalf("unexpected lock path: %s", got)
	}
}
