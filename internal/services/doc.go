// Package services defines shared utilities consumed by the job queue and
// external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs and operation names for logging.
//   - Structured error markers plus the Wrap helper that keep failures from
//     ffmpeg, melt, and the stores classifiable with errors.Is.
//
// Use these helpers when wiring new tool clients so error handling and
// observability stay uniform across the pipeline.
package services
