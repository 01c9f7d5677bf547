package config

import (
	"log/slog"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/jackzampolin/destinator/internal/reconcile"
	"github.com/jackzampolin/destinator/internal/session"
)

// Config holds destinator configuration.
// Stored at: ~/.destinator/config.yaml
type Config struct {
	Editor    EditorCfg    `mapstructure:"editor" yaml:"editor"`
	Reconcile ReconcileCfg `mapstructure:"reconcile" yaml:"reconcile"`
	Render    RenderCfg    `mapstructure:"render" yaml:"render"`
	Log       LogCfg       `mapstructure:"log" yaml:"log"`
}

// EditorCfg tunes zoom and gesture handling.
type EditorCfg struct {
	ZoomMin       float64 `mapstructure:"zoom_min" yaml:"zoom_min"`
	ZoomMax       float64 `mapstructure:"zoom_max" yaml:"zoom_max"`
	ZoomStep      float64 `mapstructure:"zoom_step" yaml:"zoom_step"`
	ZoomDefault   float64 `mapstructure:"zoom_default" yaml:"zoom_default"`
	DragThreshold float64 `mapstructure:"drag_threshold" yaml:"drag_threshold"` // Pixels below which a drag is a click
}

// ReconcileCfg tunes how document destinations are merged on load.
type ReconcileCfg struct {
	ResolveTolerance float64  `mapstructure:"resolve_tolerance" yaml:"resolve_tolerance"` // Points, per axis
	ArtifactKeywords []string `mapstructure:"artifact_keywords" yaml:"artifact_keywords"`
}

// RenderCfg configures page previews.
type RenderCfg struct {
	Pdftoppm       string  `mapstructure:"pdftoppm" yaml:"pdftoppm"`
	BaseDPI        float64 `mapstructure:"base_dpi" yaml:"base_dpi"`
	CacheSizeBytes uint64  `mapstructure:"cache_size_bytes" yaml:"cache_size_bytes"`
	PreviewDir     string  `mapstructure:"preview_dir" yaml:"preview_dir"` // Empty means ~/.destinator/previews
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	editor := session.DefaultOptions()
	policy := reconcile.DefaultPolicy()
	return &Config{
		Editor: EditorCfg{
			ZoomMin:       editor.ZoomMin,
			ZoomMax:       editor.ZoomMax,
			ZoomStep:      editor.ZoomStep,
			ZoomDefault:   editor.ZoomDefault,
			DragThreshold: editor.DragThreshold,
		},
		Reconcile: ReconcileCfg{
			ResolveTolerance: policy.ResolveTolerance,
			ArtifactKeywords: policy.ArtifactKeywords,
		},
		Render: RenderCfg{
			Pdftoppm:       "pdftoppm",
			BaseDPI:        editor.BaseDPI,
			CacheSizeBytes: 32 * 1024 * 1024,
		},
		Log: LogCfg{
			Level: "info",
		},
	}
}

// EditorOptions converts the editor section for a session. The render
// resolution is included so gesture pixels match the previews.
func (c *Config) EditorOptions() session.Options {
	return session.Options{
		ZoomMin:       c.Editor.ZoomMin,
		ZoomMax:       c.Editor.ZoomMax,
		ZoomStep:      c.Editor.ZoomStep,
		ZoomDefault:   c.Editor.ZoomDefault,
		DragThreshold: c.Editor.DragThreshold,
		BaseDPI:       c.Render.BaseDPI,
	}
}

// Policy converts the reconcile section for loading.
func (c *Config) Policy() reconcile.Policy {
	return reconcile.Policy{
		ArtifactKeywords: append([]string(nil), c.Reconcile.ArtifactKeywords...),
		ResolveTolerance: c.Reconcile.ResolveTolerance,
	}
}

// LogLevel parses log.level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// PreviewDir returns render.preview_dir with ~ expanded, or fallback when unset.
func (c *Config) PreviewDir(fallback string) string {
	if c.Render.PreviewDir == "" {
		return fallback
	}
	return ExpandPath(c.Render.PreviewDir)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
