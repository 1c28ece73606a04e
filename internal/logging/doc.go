// Package logging assembles structured slog loggers and formatting helpers used
// across bahaibot commands.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log lines
// with run IDs, workflow names, row numbers, and stages. The package also
// provides a no-op logger for tests.
//
// Diagnostic logs are separate from the audit logs written by importlog, whose
// line formats are consumed by other commands.
package logging
