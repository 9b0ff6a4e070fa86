// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties, including rotation
//   - Format: container-level metadata (duration, size, bitrate, title)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Parse: decodes previously captured ffprobe JSON
//
// Helper methods on Result provide display dimensions (rotation aware),
// frame rate, duration parsing and the container title.
package ffprobe
