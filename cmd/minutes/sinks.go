package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"minutes/internal/textutil"
)

// fileSink writes exports into a directory, replacing any earlier export of
// the same meeting atomically. Names are sanitized so they stay inside dir.
type fileSink struct {
	dir string
}

func (s fileSink) Deliver(_ context.Context, filename string, markdown []byte) (string, error) {
	dir := s.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".minutes-export-*")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(markdown); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close export: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("chmod export: %w", err)
	}
	target := filepath.Join(dir, textutil.SanitizeFileName(filename))
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("move export into place: %w", err)
	}
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	return target, nil
}

// stdoutSink prints the markdown instead of saving it.
type stdoutSink struct {
	out io.Writer
}

func (s stdoutSink) Deliver(_ context.Context, _ string, markdown []byte) (string, error) {
	if _, err := s.out.Write(markdown); err != nil {
		return "", err
	}
	return "stdout", nil
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility found")
	}
	return clipboard.WriteAll(text)
}
