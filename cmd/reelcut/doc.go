// Package main hosts the reelcut CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// off to the internal packages: "process" drives the clip pipeline, "track"
// prints face tracking diagnostics for a single span, "transcribe" runs
// WhisperX, and "check", "styles", "history" and "config" report on the local
// setup.
//
// Keep this package lean: new behaviour belongs in internal packages first and
// is surfaced here through dedicated commands or flags.
package main
