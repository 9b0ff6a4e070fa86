// Package captions builds word-synchronized caption overlays.
//
// BuildTimeline maps source-time words onto a clip's own timeline, dropping
// words outside the clip or too short to read. A Renderer rasterizes each
// surviving word into a transparent frame-sized image in the active Style,
// swapping in the accent color for highlighted keywords. Fonts are resolved
// once from ranked candidate paths, with the embedded Go fonts as fallback.
package captions
