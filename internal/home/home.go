package home

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	// DefaultDirName is the default name for the destinator home directory.
	DefaultDirName = ".destinator"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// LogFileName receives logs while the full-screen editor owns the terminal.
	LogFileName = "destinator.log"
)

// Dir represents the destinator home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.destinator). A leading ~ is expanded.
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand home path: %w", err)
	}
	return &Dir{path: expanded}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CacheDir holds rendered pages keyed by document and zoom.
func (d *Dir) CacheDir() string {
	return filepath.Join(d.path, "cache")
}

// PreviewsDir holds the annotated page previews the editor writes.
func (d *Dir) PreviewsDir() string {
	return filepath.Join(d.path, "previews")
}

// LogPath returns the editor log file.
func (d *Dir) LogPath() string {
	return filepath.Join(d.path, LogFileName)
}

// PreviewPath returns the preview image for a page of a session.
// Page numbers are 0-indexed and written 1-indexed.
func PreviewPath(dir, sessionID string, page int) string {
	return filepath.Join(dir, sessionID, fmt.Sprintf("page_%04d.png", page+1))
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.CacheDir(), d.PreviewsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// RemovePreviews deletes the preview images of one session.
func RemovePreviews(dir, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(dir, sessionID)); err != nil {
		return fmt.Errorf("failed to remove previews: %w", err)
	}
	return nil
}
