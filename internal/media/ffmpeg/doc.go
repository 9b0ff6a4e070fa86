// Package ffmpeg drives the ffmpeg binary for reelcut.
//
// Clip is the video handle the reframe tracker samples: it extracts single
// frames on demand and carries an optional crop window. Encoder is the output
// sink: a single ffmpeg invocation that trims the source, applies the crop,
// overlays caption images and writes an H.264/AAC MP4.
package ffmpeg
