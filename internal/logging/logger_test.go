package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"log/slog"

	"redline/internal/config"
	"redline/internal/logging"
)

func TestNewJSONWritesStructuredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("workflow created", slog.Int64("workflow_id", 7))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	if record["msg"] != "workflow created" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["workflow_id"] != float64(7) {
		t.Fatalf("unexpected workflow_id: %v", record["workflow_id"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "suppressed") {
		t.Fatal("info record should have been filtered")
	}
	if !strings.Contains(content, "emitted") {
		t.Fatal("warn record missing")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Info("hello")

	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "redline.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := logging.NewNop()
	ctx := logging.IntoContext(context.Background(), logger)
	if got := logging.FromContext(ctx); got != logger {
		t.Fatal("expected logger from context")
	}
	if got := logging.FromContext(context.Background()); got == nil {
		t.Fatal("expected fallback logger for bare context")
	}
}
