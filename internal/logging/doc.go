// Package logging assembles structured slog loggers and formatting helpers used
// across srtgram.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline stages tag their
// log lines with the run ID and stage name. Console output goes to stderr;
// NewFromConfig tees a JSON copy into the configured log directory. The
// package also provides a no-op logger for tests and library defaults.
package logging
