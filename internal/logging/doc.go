// Package logging constructs the application's slog loggers.
//
// Two output formats are supported: a human-oriented console format with
// terminal color detection, and line-delimited JSON for log shippers. Output
// fans out to stdout and the configured log file.
package logging
