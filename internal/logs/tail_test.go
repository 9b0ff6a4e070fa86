package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelcut/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelcut.log")
	writeLog(t, path, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Lines: 2})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if strings.Join(result.Lines, ",") != "b,c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("offset = %d, want 6", result.Offset)
	}
}

func TestTailFewerLinesThanLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelcut.log")
	writeLog(t, path, "only\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Lines: 5})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailLeavesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelcut.log")
	writeLog(t, path, "done\nhalf")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "done" || result.Offset != 5 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestTailAppliesMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelcut.log")
	writeLog(t, path, "keep 1\ndrop\nkeep 2\ndrop\n")

	keep := func(line string) bool { return strings.HasPrefix(line, "keep") }
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Lines: 10, Match: keep})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if strings.Join(result.Lines, ",") != "keep 1,keep 2" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "absent.log"), logs.TailOptions{Offset: -1, Lines: 3})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestTailRejectsDirectory(t *testing.T) {
	if _, err := logs.Tail(context.Background(), t.TempDir(), logs.TailOptions{}); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelcut.log")
	writeLog(t, path, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Lines: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan logs.TailResult, 1)
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail: %v", err)
		}
		done <- res
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case res := <-done:
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Fatalf("unexpected follow lines: %#v", res.Lines)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestTailWaitStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelcut.log")
	writeLog(t, path, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := logs.Tail(ctx, path, logs.TailOptions{Offset: 6, Wait: time.Minute})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
