// Package selection decides which spans of a source video become clips.
//
// Sources, in order of preference:
//   - a user manifest (LoadManifest)
//   - an LLM ranking of the timestamped transcript (LLMSelector)
//   - distinct transcript segments (FromSegments)
//   - uniform random spans (Random)
//
// Selector applies that order. Every Spec is checked with go-playground
// validator struct tags before it is used.
package selection
