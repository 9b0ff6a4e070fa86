// Package facedetect provides the face detector backends used by reframe.
//
// Pigo runs the pigo pixel-intensity cascade in process and needs a facefinder
// cascade file. Command hands each frame to an external program as PNG on
// stdin and reads JSON boxes from stdout, for detectors that live outside Go.
// New picks a backend from the tracking configuration; the returned Detector
// is long-lived and must be closed by its owner once the batch is done.
package facedetect
