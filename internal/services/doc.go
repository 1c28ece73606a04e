// Package services defines shared utilities consumed by the import pipeline and
// the remote integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, workflow names, row numbers, and
//     pipeline stages for logging.
//   - Structured error markers plus the Wrap helper that let the batch driver
//     tell validation failures from remote and transient ones.
//
// Use these helpers when wiring new workflow logic so error classification and
// observability stay uniform across commands.
package services
