package logs

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"reelcut/internal/logging"
)

// ErrNoLogs reports that no matching run log exists.
var ErrNoLogs = errors.New("no run logs found")

// Files returns the run logs in dir, newest first. Run log names embed a UTC
// timestamp, so name order is start order.
func Files(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.RunLogPattern))
	if err != nil {
		return nil, fmt.Errorf("list run logs: %w", err)
	}
	slices.Sort(matches)
	slices.Reverse(matches)
	return matches, nil
}

// Latest returns the newest run log in dir.
func Latest(dir string) (string, error) {
	files, err := Files(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoLogs
	}
	return files[0], nil
}

// FindRun returns the newest run log containing a record for runID.
func FindRun(dir, runID string) (string, error) {
	files, err := Files(dir)
	if err != nil {
		return "", err
	}
	match := MatchRun(runID)
	for _, path := range files {
		found, err := containsMatch(path, match)
		if err != nil {
			return "", err
		}
		if found {
			return path, nil
		}
	}
	return "", fmt.Errorf("run %s: %w", runID, ErrNoLogs)
}

func containsMatch(path string, match func(string) bool) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		if match(scanner.Text()) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("read log file: %w", err)
	}
	return false, nil
}

// MatchRun returns a line filter keeping records tagged with runID. Lines that
// are not JSON records are dropped.
func MatchRun(runID string) func(string) bool {
	runID = strings.TrimSpace(runID)
	return func(line string) bool {
		entry, ok := ParseEntry(line)
		return ok && entry.RunID == runID
	}
}

// Entry is one decoded run log record.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	ClipIndex int
	Stage     string
	Attrs     map[string]any
}

// ParseEntry decodes a JSON run log line.
func ParseEntry(line string) (Entry, bool) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return Entry{}, false
	}
	entry := Entry{
		Level:     take(record, "level"),
		Message:   take(record, "msg"),
		Component: take(record, logging.FieldComponent),
		RunID:     take(record, logging.FieldRunID),
		Stage:     take(record, logging.FieldStage),
	}
	if ts, err := time.Parse(time.RFC3339Nano, take(record, "ts")); err == nil {
		entry.Time = ts
	}
	if idx, ok := record[logging.FieldClipIndex].(float64); ok {
		entry.ClipIndex = int(idx)
		delete(record, logging.FieldClipIndex)
	}
	if len(record) > 0 {
		entry.Attrs = record
	}
	return entry, true
}

func take(record map[string]any, key string) string {
	value, ok := record[key]
	if !ok {
		return ""
	}
	delete(record, key)
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// Format renders the entry as one console line in local time.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	level := strings.ToUpper(e.Level)
	if level == "" {
		level = "INFO"
	}
	b.WriteString(level)
	if e.Component != "" {
		b.WriteString(" [" + e.Component + "]")
	}
	if subject := e.subject(); subject != "" {
		b.WriteString(" " + subject)
	}
	b.WriteString(" " + e.Message)

	keys := make([]string, 0, len(e.Attrs))
	for key := range e.Attrs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Attrs[key])
	}
	return b.String()
}

func (e Entry) subject() string {
	var parts []string
	if e.RunID != "" {
		id := e.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, "run "+id)
	}
	if e.ClipIndex > 0 {
		parts = append(parts, "clip "+strconv.Itoa(e.ClipIndex))
	}
	if e.Stage != "" {
		parts = append(parts, e.Stage)
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// FormatLine renders a raw log line, passing non-JSON lines through.
func FormatLine(line string) string {
	entry, ok := ParseEntry(line)
	if !ok {
		return line
	}
	return entry.Format()
}
