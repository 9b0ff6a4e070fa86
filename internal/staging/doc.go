// Package staging manages the per-run work directories under paths.temp_dir.
//
// Each run extracts frames, glyph PNGs and transcripts into its own directory
// and removes it on exit. Directories left behind by killed runs are swept by
// age at the start of the next run and by `reelcut clean`.
package staging
