package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var baseSchema string

// migrations[i] moves a database from user_version i to i+1.
var migrations = []string{
	baseSchema,
}

// ErrSchemaMismatch reports a database written by a newer reelcut.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrate brings the database up to len(migrations), tracking progress in
// SQLite's user_version pragma.
func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("%w: %s is at version %d, this build knows %d (delete it to reset history)",
			ErrSchemaMismatch, s.path, version, len(migrations))
	}
	for next := version; next < len(migrations); next++ {
		if err := s.apply(ctx, next+1, migrations[next]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, version int, ddl string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	// PRAGMA does not accept bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("record version %d: %w", version, err)
	}
	return tx.Commit()
}
