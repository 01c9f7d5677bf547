package testutil

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// RequireBinary skips the test when name is not on PATH and returns its
// full path otherwise.
func RequireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not installed: %v", name, err)
	}
	return path
}

// Logger returns a logger that writes through t.Log so output is shown only
// for failing tests.
func Logger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// FakeRasterizer installs a pdftoppm stand-in that copies a blank width x
// height PNG to the requested output and appends its arguments to logPath.
func FakeRasterizer(t *testing.T, width, height int) (bin, logPath string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script rasterizer needs a POSIX shell")
	}
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "page.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	logPath = filepath.Join(dir, "calls.log")
	bin = filepath.Join(dir, "pdftoppm")
	script := fmt.Sprintf("#!/bin/sh\nfor last; do :; done\necho \"$@\" >> %q\ncp %q \"$last.png\"\n", logPath, pngPath)
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, logPath
}

// RasterizerCalls returns the argument lines a FakeRasterizer logged.
func RasterizerCalls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
