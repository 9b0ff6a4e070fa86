// Package compose layers timed caption glyph images over a reframed clip.
//
// Compositor renders one transparent frame-sized PNG per caption word and
// returns a Composition describing the base clip plus its overlays. The
// Composition is a plan; the ffmpeg encoder turns it into a filter graph.
package compose
