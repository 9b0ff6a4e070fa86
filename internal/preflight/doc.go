// Package preflight provides readiness checks for the tools, files and
// services a reelcut run depends on.
//
// The CLI "reelcut check" command prints every result; "reelcut process"
// runs the same checks first and refuses to start when a required one fails,
// so a missing cascade file or unwritable output directory is reported before
// any transcription or encoding work begins.
//
// Each check is gated by its config toggle: the cascade check only applies to
// the pigo detector and the LLM check only runs when ranking is enabled.
package preflight
