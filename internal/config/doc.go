// Package config loads, validates, and normalizes redline configuration.
//
// Configuration is read from a TOML file (default ~/.config/redline/config.toml,
// or redline.toml in the working directory). The loaded Config is an immutable
// value: it is constructed once at startup and handed to components by the
// composition root, never mutated afterwards.
package config
