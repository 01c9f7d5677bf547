package config

import (
	"errors"
	"fmt"
	"unicode"
)

var (
	// ErrInvalidKey is returned when a config key contains invalid characters.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrUnknownKey is returned for well-formed keys destinator does not know.
	ErrUnknownKey = errors.New("unknown config key")
)

// Entry is a single configuration key.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every configuration key with its default value.
// They are registered as viper defaults, so each is also settable from the
// environment.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// ===================
		// Editor
		// ===================
		{
			Key:         "editor.zoom_min",
			Value:       d.Editor.ZoomMin,
			Description: "Smallest zoom factor",
		},
		{
			Key:         "editor.zoom_max",
			Value:       d.Editor.ZoomMax,
			Description: "Largest zoom factor",
		},
		{
			Key:         "editor.zoom_step",
			Value:       d.Editor.ZoomStep,
			Description: "Zoom change per + or - key press",
		},
		{
			Key:         "editor.zoom_default",
			Value:       d.Editor.ZoomDefault,
			Description: "Zoom factor a session starts at",
		},
		{
			Key:         "editor.drag_threshold",
			Value:       d.Editor.DragThreshold,
			Description: "Pixels a release may be from its press and still count as a click",
		},

		// ===================
		// Reconcile
		// ===================
		{
			Key:         "reconcile.resolve_tolerance",
			Value:       d.Reconcile.ResolveTolerance,
			Description: "Points, per axis, within which a page jump resolves to a known destination",
		},
		{
			Key:         "reconcile.artifact_keywords",
			Value:       d.Reconcile.ArtifactKeywords,
			Description: "Destination ids with a colon and one of these words are hidden from the list",
		},

		// ===================
		// Render
		// ===================
		{
			Key:         "render.pdftoppm",
			Value:       d.Render.Pdftoppm,
			Description: "pdftoppm executable used to rasterize pages",
		},
		{
			Key:         "render.base_dpi",
			Value:       d.Render.BaseDPI,
			Description: "Render resolution at zoom 1",
		},
		{
			Key:         "render.cache_size_bytes",
			Value:       d.Render.CacheSizeBytes,
			Description: "In-memory size of the rendered page cache",
		},
		{
			Key:         "render.preview_dir",
			Value:       d.Render.PreviewDir,
			Description: "Where preview PNGs are written (empty: ~/.destinator/previews)",
		},

		// ===================
		// Log
		// ===================
		{
			Key:         "log.level",
			Value:       d.Log.Level,
			Description: "Log level: debug, info, warn or error",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
