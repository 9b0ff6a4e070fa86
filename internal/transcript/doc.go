// Package transcript loads word-timed transcripts produced by WhisperX or
// faster-whisper style tools.
//
// Words become captions.Word values in source seconds; segments keep their
// text for clip selection.
package transcript
