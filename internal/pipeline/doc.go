// Package pipeline turns one source video into a batch of vertical clips.
//
// A Processor probes the source, loads or produces a transcript, selects clip
// spans and then handles each clip in turn: tracking the speaker, cropping to
// 9:16, laying caption glyphs over the crop and encoding the result into the
// output directory. Clips are independent; one failing clip is recorded in the
// run history and the batch moves on.
//
// Runs hold an advisory lock on the output directory so two invocations never
// write the same clip names concurrently. Per-run scratch files live under
// the configured temp directory and are removed when the run ends.
package pipeline
