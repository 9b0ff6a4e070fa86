package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const (
	exitFailure     = 1
	exitPreflight   = 3
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	code := exitCode(err)
	if code != exitInterrupted {
		fmt.Fprintln(os.Stderr, "reelcut:", err)
	}
	os.Exit(code)
}

// exitCode maps err to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, errPreflightFailed):
		return exitPreflight
	default:
		return exitFailure
	}
}
