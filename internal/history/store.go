package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_path, title, style, status, clips_requested, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SourcePath,
		nullableString(run.Title),
		nullableString(run.Style),
		run.Status,
		run.ClipsRequested,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunSelection records the resolved title and clip count once selection finishes.
func (s *Store) UpdateRunSelection(ctx context.Context, id, title string, requested int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET title = ?, clips_requested = ? WHERE id = ?`,
		nullableString(title), requested, id,
	)
	if err != nil {
		return fmt.Errorf("update run selection: %w", err)
	}
	return nil
}

// FinishRun marks a run finished with its final status.
func (s *Store) FinishRun(ctx context.Context, id string, status Status, succeeded int, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, clips_succeeded = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status,
		succeeded,
		nullableString(errMsg),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", id)
	}
	return nil
}

// RecordClip inserts a clip outcome and assigns its ID.
func (s *Store) RecordClip(ctx context.Context, clip *Clip) error {
	if clip == nil {
		return errors.New("clip is nil")
	}
	if clip.CreatedAt.IsZero() {
		clip.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO clips (
            run_id, clip_index, title, score, hook_type, start_seconds, end_seconds,
            cropped, crop_left, crop_width, center_x, detections, caption_words,
            output_path, size_bytes, status, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		clip.RunID,
		clip.Index,
		nullableString(clip.Title),
		clip.Score,
		nullableString(clip.HookType),
		clip.Start,
		clip.End,
		boolToInt(clip.Cropped),
		clip.CropLeft,
		clip.CropWidth,
		clip.CenterX,
		clip.Detections,
		clip.CaptionWords,
		nullableString(clip.OutputPath),
		clip.SizeBytes,
		clip.Status,
		nullableString(clip.ErrorMessage),
		clip.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert clip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	clip.ID = id
	return nil
}

const runColumns = `id, source_path, title, style, status, clips_requested, clips_succeeded,
    error_message, started_at, finished_at`

// GetRun fetches a run by identifier. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns lists the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ClipsForRun lists the clips recorded for a run in clip order.
func (s *Store) ClipsForRun(ctx context.Context, runID string) ([]Clip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, clip_index, title, score, hook_type, start_seconds, end_seconds,
                cropped, crop_left, crop_width, center_x, detections, caption_words,
                output_path, size_bytes, status, error_message, created_at
         FROM clips WHERE run_id = ? ORDER BY clip_index, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []Clip
	for rows.Next() {
		var (
			clip                        Clip
			title, hook, output, errMsg sql.NullString
			cropped                     int
			created                     string
		)
		if err := rows.Scan(
			&clip.ID, &clip.RunID, &clip.Index, &title, &clip.Score, &hook, &clip.Start, &clip.End,
			&cropped, &clip.CropLeft, &clip.CropWidth, &clip.CenterX, &clip.Detections, &clip.CaptionWords,
			&output, &clip.SizeBytes, &clip.Status, &errMsg, &created,
		); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clip.Title = title.String
		clip.HookType = hook.String
		clip.OutputPath = output.String
		clip.ErrorMessage = errMsg.String
		clip.Cropped = cropped != 0
		if ts, err := parseTimeString(created); err == nil {
			clip.CreatedAt = ts
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clips: %w", err)
	}
	return clips, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                  Run
		title, style, errMsg sql.NullString
		started              string
		finished             sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.SourcePath, &title, &style, &run.Status,
		&run.ClipsRequested, &run.ClipsSucceeded, &errMsg, &started, &finished,
	); err != nil {
		return nil, err
	}
	run.Title = title.String
	run.Style = style.String
	run.ErrorMessage = errMsg.String
	if ts, err := parseTimeString(started); err == nil {
		run.StartedAt = ts
	}
	if finished.Valid {
		if ts, err := parseTimeString(finished.String); err == nil {
			run.FinishedAt = &ts
		}
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
