// Package services defines shared utilities consumed by the processing pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, clip indexes, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent clip statuses (failed vs rejected).
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
