// Package reframe turns a wide clip into a 9:16 vertical crop that follows the
// dominant face.
//
// A Tracker samples a handful of frames across the clip, asks a Detector for
// faces in each (through a Locator that downscales frames and caches results
// per timestamp), carries the last known position forward when a frame has no
// face, smooths the horizontal trajectory with a short moving average, and
// reduces it to one median center. SelectWindow turns that center into a fixed
// crop rectangle clamped to the frame.
//
// Tracking state never outlives a clip. The Detector itself is long-lived and
// owned by the caller.
package reframe
