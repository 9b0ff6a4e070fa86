// Package language normalizes the spoken-language hints reelcut hands to
// WhisperX.
//
// Configuration values, container stream tags and transcript headers all name
// languages differently ("eng", "English", "en-US"). Normalize folds them to
// the ISO 639-1 base code WhisperX expects, with "auto" meaning detection.
package language
