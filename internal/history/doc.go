// Package history persists a record of processing runs and the clips each run
// produced in a small SQLite database under the state directory.
//
// The schema is embedded and versioned; a mismatched version is reported
// rather than migrated, since the data is bookkeeping that can be discarded.
package history
