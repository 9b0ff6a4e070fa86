// Package logs reads the JSON run logs reelcut writes to logging.log_dir.
//
// Tail returns the last lines of a log or the lines appended after an offset,
// optionally waiting for more. Latest and FindRun locate the file for the most
// recent run or for a specific run id, and Entry renders a JSON record as a
// single console line for `reelcut logs`.
package logs
