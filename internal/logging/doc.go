// Package logging assembles structured slog loggers and formatting helpers used
// across reelcut.
//
// It owns the configurable console/JSON handlers, tees every run into a JSON
// log file under the configured log directory, and exposes context-aware
// helpers so pipeline code automatically tags log lines with the run id, clip
// index, and stage. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// records with the same shape as the rest of the system.
package logging
