package config

import (
	"errors"
	"fmt"
	"regexp"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateModels(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateModels() error {
	seen := make(map[string]bool, len(c.Models))
	for _, model := range c.Models {
		if model.UID == "" {
			return errors.New("models entries must set uid")
		}
		if seen[model.UID] {
			return fmt.Errorf("models uid %q declared twice", model.UID)
		}
		seen[model.UID] = true
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return errors.New("api.bind must be set")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Limits.MaxWorkflows < 1 {
		return errors.New("limits.max_workflows must be at least 1")
	}
	if c.Limits.MaxStagesPerWorkflow < 1 {
		return errors.New("limits.max_stages_per_workflow must be at least 1")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.BulkPageSize < 1 {
		return errors.New("engine.bulk_page_size must be at least 1")
	}
	if !colorPattern.MatchString(c.Engine.DefaultStageColor) {
		return fmt.Errorf("engine.default_stage_color %q must be a #rrggbb value", c.Engine.DefaultStageColor)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
