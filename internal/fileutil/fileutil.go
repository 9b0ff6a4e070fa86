// Package fileutil places finished files atomically so readers of the output
// directory never see a half-written clip or transcript.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// rename is swapped in tests to simulate a cross-device move.
var rename = os.Rename

// CopyFile copies src to dst through a temp file in dst's directory and
// renames it into place. It returns the SHA-256 of the bytes written.
func CopyFile(src, dst string) ([]byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure destination dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	sum := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, sum), in); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := rename(tmp.Name(), dst); err != nil {
		return nil, err
	}
	return sum.Sum(nil), nil
}

// MoveFile renames src to dst, creating dst's directory. Across filesystems
// it copies, re-hashes dst against the copied bytes and only then removes src.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("ensure destination dir: %w", err)
	}
	err := rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	want, err := CopyFile(src, dst)
	if err != nil {
		return fmt.Errorf("cross-device move: %w", err)
	}
	got, err := hashFile(dst)
	if err != nil {
		return fmt.Errorf("cross-device move: verify: %w", err)
	}
	if !bytes.Equal(want, got) {
		_ = os.Remove(dst)
		return fmt.Errorf("cross-device move: %s changed while copying", dst)
	}
	return os.Remove(src)
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return nil, err
	}
	return sum.Sum(nil), nil
}
