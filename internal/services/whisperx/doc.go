// Package whisperx runs WhisperX through uvx to produce word-timed transcripts.
//
// The service extracts a mono 16 kHz WAV from the source video with ffmpeg,
// invokes WhisperX on it and returns the path of the JSON transcript, which
// internal/transcript loads.
package whisperx
