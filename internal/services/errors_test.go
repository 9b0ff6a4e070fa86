package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"reelcut/internal/history"
	"reelcut/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encode", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestFailureStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "track", "clip", "invalid", nil)
	if status := services.FailureStatus(validationErr); status != history.StatusRejected {
		t.Fatalf("expected rejected for validation error, got %s", status)
	}

	transientErr := services.Wrap(services.ErrTransient, "encode", "copy", "copy failed", errors.New("io"))
	if status := services.FailureStatus(transientErr); status != history.StatusFailed {
		t.Fatalf("expected failed for transient error, got %s", status)
	}

	if status := services.FailureStatus(nil); status != history.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}

func TestStageOfReadsOutermostError(t *testing.T) {
	inner := services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "exit 1", nil)
	outer := fmt.Errorf("clip 2: %w", services.Wrap(services.ErrTransient, "render", "", "", inner))
	if got := services.StageOf(outer); got != "render" {
		t.Fatalf("StageOf = %q, want render", got)
	}
	if !errors.Is(outer, services.ErrExternalTool) {
		t.Fatal("expected inner marker to stay reachable")
	}
	if got := services.StageOf(errors.New("plain")); got != "" {
		t.Fatalf("StageOf(plain) = %q", got)
	}
}
