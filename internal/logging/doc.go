// Package logging builds the slog loggers used across Descant.
//
// Two output formats are supported: a human-oriented console format with
// optional ANSI color (enabled only when stdout is a terminal) and a machine
// JSON format. Output fans out to stdout plus a log file in the configured
// log directory. Attr helpers keep call sites terse and consistent.
package logging
