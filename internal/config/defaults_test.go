package config

import (
	"errors"
	"testing"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()

	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	// Verify required keys exist
	requiredKeys := []string{
		"editor.zoom_min",
		"editor.zoom_max",
		"editor.zoom_step",
		"editor.zoom_default",
		"editor.drag_threshold",
		"reconcile.resolve_tolerance",
		"reconcile.artifact_keywords",
		"render.pdftoppm",
		"render.base_dpi",
		"render.cache_size_bytes",
		"render.preview_dir",
		"log.level",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		if keys[e.Key] {
			t.Errorf("DefaultEntries() has duplicate key: %s", e.Key)
		}
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("DefaultEntries() key %s has no description", e.Key)
		}
		if err := ValidateKey(e.Key); err != nil {
			t.Errorf("DefaultEntries() key %s is invalid: %v", e.Key, err)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("editor.drag_threshold")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != 10.0 {
			t.Errorf("GetDefault() Value = %v, want 10", entry.Value)
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		entry := GetDefault("does.not.exist")
		if entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple", "log.level", false},
		{"underscore", "editor.zoom_max", false},
		{"hyphen", "render.preview-dir", false},
		{"empty", "", true},
		{"space", "log level", true},
		{"leading dot", ".log", true},
		{"trailing dot", "log.", true},
		{"slash", "log/level", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ValidateKey(%q) error should wrap ErrInvalidKey", tt.key)
			}
		})
	}
}
