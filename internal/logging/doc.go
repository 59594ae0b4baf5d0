// Package logging builds the slog loggers used across Kinetic.
//
// It supports a compact console format for interactive use and JSON for
// machine consumption, fanning output to stdout plus the configured log file.
package logging
